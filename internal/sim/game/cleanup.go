package game

import (
	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/effects"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

// cleanupDeadEntities removes every dead entity and announces them in one
// NODE_KILLED message.
func (g *Game) cleanupDeadEntities() {
	var dead []entity.Entity
	for _, e := range g.reg.All() {
		if e.Dead() {
			dead = append(dead, e)
		}
	}
	if len(dead) == 0 {
		return
	}
	killed := make([]int, 0, len(dead))
	for _, e := range dead {
		if g.reg.Get(e.Ref().ID) == nil {
			continue
		}
		g.removeEntity(e)
		killed = append(killed, e.Ref().ID)
		g.rec.killed = append(g.rec.killed, RecordedKill{
			EntityID: e.Ref().ID,
			Kind:     e.Kind().String(),
			Owner:    entity.OwnerOf(e),
		})
		if p, ok := e.(*entity.Player); ok && p.Human {
			g.log.Printf("tick=%d player %d (%s) killed", g.rec.tick, p.ID, p.Name)
		}
	}
	g.window.kills += len(killed)
	g.broadcast(protocol.NodeKilledMsg{
		Type:            protocol.TypeNodeKilled,
		ProtocolVersion: protocol.Version,
		Tick:            g.rec.tick,
		EntityList:      killed,
	})
}

// removeEntity orphans everything below e, then drops e from the registry,
// the distance matrix, physics and the effect queues.
func (g *Game) removeEntity(e entity.Entity) {
	id := e.Ref().ID
	switch v := e.(type) {
	case *entity.Player:
		g.orphanSubtree(id)
		for _, n := range g.reg.NodesOwnedBy(v.ID) {
			n.PlayerEntityID = entity.NoOwner
			n.TargetID = entity.NoOwner
		}
	case *entity.Node:
		g.orphanSubtree(id)
	case *entity.Resource:
	}

	g.reg.Remove(id)
	g.dist.RemoveTransform(id)
	g.phys.ScheduleDestroyBody(e.Ref().Body)
	g.transfers.Purge(func(t effects.Transfer) bool { return t.Touches(id) })
	g.bullets.Purge(func(b effects.Bullet) bool { return b.Touches(id) })
}

func (g *Game) orphanSubtree(rootID int) {
	g.reg.TraverseNodes(rootID, 0, func(e entity.Entity, depth int) {
		if depth == 0 {
			return
		}
		if n, ok := e.(*entity.Node); ok {
			n.PlayerEntityID = entity.NoOwner
			n.TargetID = entity.NoOwner
		}
	})
}
