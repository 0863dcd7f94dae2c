package game

import (
	"math"
	"sort"

	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

// ViewForSession builds the STATE message for a session, or nil when the
// session has no live player. Unless full, entities further than the
// visibility radius from the session's player are culled. A player's nodes
// travel with the player regardless of their own distance.
func (g *Game) ViewForSession(sessionID string, full bool) *protocol.StateMsg {
	me := g.playerForSession(sessionID)
	if me == nil {
		return nil
	}
	visible := func(e entity.Entity) bool {
		if full {
			return true
		}
		return g.dist.Distance(me.ID, e.Ref().ID) <= g.tu.World.VisibilityRadius
	}

	msg := &protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            g.tick.Load(),
		IsFullState:     full,
		PlayerStates:    []protocol.PlayerState{},
		ResourceStates:  []protocol.ResourceState{},
		OrphanNodes:     []protocol.NodeState{},
	}
	for _, p := range g.reg.Players() {
		if !p.Body.Live() || !visible(p) {
			continue
		}
		ps := protocol.PlayerState{
			EID:           p.ID,
			X:             trunc3(p.X),
			Y:             trunc3(p.Y),
			R:             p.R,
			Name:          p.Name,
			Hue:           p.Hue,
			IsHuman:       p.Human,
			IsCtrl:        p.ID == me.ID,
			MineralAmount: p.Mineral,
			AmmoAmount:    p.Ammo,
			HP:            p.HP,
			MaxHP:         p.MaxHP,
			Nodes:         []protocol.NodeState{},
		}
		for _, n := range g.reg.NodesOwnedBy(p.ID) {
			ps.Nodes = append(ps.Nodes, nodeState(n))
		}
		msg.PlayerStates = append(msg.PlayerStates, ps)
	}
	for _, r := range g.reg.Resources() {
		if !visible(r) {
			continue
		}
		msg.ResourceStates = append(msg.ResourceStates, protocol.ResourceState{
			EID:           r.ID,
			X:             trunc3(r.X),
			Y:             trunc3(r.Y),
			R:             r.R,
			MineralAmount: r.Mineral,
			AmmoAmount:    r.Ammo,
		})
	}
	for _, n := range g.reg.NodesOwnedBy(entity.NoOwner) {
		if visible(n) {
			msg.OrphanNodes = append(msg.OrphanNodes, nodeState(n))
		}
	}
	return msg
}

func nodeState(n *entity.Node) protocol.NodeState {
	return protocol.NodeState{
		EID:            n.ID,
		X:              trunc3(n.X),
		Y:              trunc3(n.Y),
		R:              n.R,
		NodeType:       n.Type.String(),
		HP:             n.HP,
		MaxHP:          n.MaxHP,
		PlayerEntityID: n.PlayerEntityID,
		ParentNodeID:   n.ParentNodeID,
		BirthTick:      n.BirthTick,
		TargetID:       n.TargetID,
	}
}

func trunc3(v float64) float64 { return math.Trunc(v*1000) / 1000 }

// broadcastState sends culled state on the state cadence, full state on the
// full-state cadence, and full state to sessions that just sent START.
func (g *Game) broadcastState() {
	tick := g.tick.Load()
	culled := tick >= g.nextStateTick
	full := tick >= g.nextFullStateTick
	if culled {
		g.nextStateTick = tick + int64(g.tu.Timing.StateIntervalMs)
	}
	if full {
		g.nextFullStateTick = tick + int64(g.tu.Timing.FullStateIntervalMs)
	}
	for _, id := range g.sessionIDs() {
		c := g.clients[id]
		if c.out == nil {
			continue
		}
		wantFull := full || c.wantFull
		if !wantFull && !culled {
			continue
		}
		view := g.ViewForSession(id, wantFull)
		if view == nil {
			continue
		}
		c.wantFull = false
		b, err := c.enc.Marshal(view)
		if err != nil {
			g.log.Printf("encode state for %s: %v", id, err)
			continue
		}
		sendLatest(c.out, b)
	}
}

func (g *Game) sessionIDs() []string {
	ids := make([]string, 0, len(g.clients))
	for id := range g.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
