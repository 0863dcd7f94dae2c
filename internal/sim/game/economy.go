package game

import (
	"github.com/vicksonzero/shroom-io/internal/sim/effects"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

// resolveEffects applies bullets, then transfers, due at the current tick.
func (g *Game) resolveEffects() {
	tick := g.rec.tick
	g.bullets.Resolve(tick, g.applyBullet)
	g.transfers.Resolve(tick, g.applyTransfer)
}

func (g *Game) updateNodes() {
	nodes := g.reg.Nodes()
	for _, n := range nodes {
		g.updateNodeMining(n)
	}
	for _, n := range nodes {
		if n.Type.Shoots() {
			g.updateNodeShooting(n)
		}
	}
}

// updateNodeMining starts a transfer from the nearest resource in range.
// The cooldown only resets when a transfer actually starts.
func (g *Game) updateNodeMining(n *entity.Node) {
	if n.NextCanMine > g.rec.tick || n.Orphaned() {
		return
	}
	if g.reg.Player(n.PlayerEntityID) == nil {
		return
	}
	res := g.nearestResource(n.ID, g.tu.Mining.Distance)
	if res == nil {
		return
	}
	if !g.startTransfer(res, n, g.tu.Mining.Amount, 0) {
		return
	}
	n.NextCanMine = g.rec.tick + int64(g.tu.Mining.IntervalMs)
}

func (g *Game) nearestResource(fromID int, maxExcl float64) *entity.Resource {
	for _, nb := range g.dist.ClosestTo(fromID, 0, 0, maxExcl) {
		if r := g.reg.Resource(nb.EntityID); r != nil {
			return r
		}
	}
	return nil
}

// startTransfer debits the source now and schedules the credit. A source
// holding less than asked gives what it has, so it always runs dry.
func (g *Game) startTransfer(from *entity.Resource, to *entity.Node, mineral, ammo int) bool {
	mineral = min(mineral, from.Mineral)
	ammo = min(ammo, from.Ammo)
	if mineral <= 0 && ammo <= 0 {
		return false
	}
	from.Mineral -= mineral
	from.Ammo -= ammo
	g.transfers.Schedule(effects.Transfer{
		ID:        g.reg.NextID(),
		FromID:    from.ID,
		ToID:      to.ID,
		Mineral:   mineral,
		Ammo:      ammo,
		StartTick: g.rec.tick,
		Duration:  int64(g.tu.Mining.TimeMs),
	})
	return true
}

// applyTransfer credits the player owning the destination at arrival time.
func (g *Game) applyTransfer(t effects.Transfer) {
	var p *entity.Player
	switch dst := g.reg.Get(t.ToID).(type) {
	case *entity.Node:
		p = g.reg.Player(dst.PlayerEntityID)
	case *entity.Player:
		p = dst
	}
	if p == nil {
		return
	}
	p.Mineral += t.Mineral
	p.Ammo += t.Ammo
	g.window.transfersApplied++
}

func (g *Game) applyBullet(b effects.Bullet) {
	switch dst := g.reg.Get(b.ToID).(type) {
	case *entity.Node:
		dst.HP -= b.Damage
	case *entity.Player:
		dst.HP -= b.Damage
	}
}

// updateNodeShooting keeps or acquires a hostile target and fires at it.
// Orphaned nodes keep shooting at owned entities but never at other orphans.
func (g *Game) updateNodeShooting(n *entity.Node) {
	if n.NextCanShoot > g.rec.tick {
		return
	}
	if n.TargetID != entity.NoOwner && !g.validTarget(n, n.TargetID) {
		n.TargetID = entity.NoOwner
		return
	}
	if n.TargetID == entity.NoOwner {
		n.TargetID = g.acquireTarget(n)
		if n.TargetID == entity.NoOwner {
			return
		}
	}
	g.shoot(n, n.TargetID)
	n.NextCanShoot = g.rec.tick + int64(g.tu.Shooting.IntervalMs)
}

func (g *Game) validTarget(n *entity.Node, id int) bool {
	e := g.reg.Get(id)
	if e == nil || e.Dead() || !entity.Hostile(n.PlayerEntityID, e) {
		return false
	}
	return g.dist.Distance(n.ID, id) < g.tu.Shooting.Distance
}

func (g *Game) acquireTarget(n *entity.Node) int {
	for _, nb := range g.dist.ClosestTo(n.ID, 0, 0, g.tu.Shooting.Distance) {
		e := g.reg.Get(nb.EntityID)
		if e == nil || e.Dead() || e.Kind() == entity.KindResource {
			continue
		}
		if entity.Hostile(n.PlayerEntityID, e) {
			return nb.EntityID
		}
	}
	return entity.NoOwner
}

// hostileWithin reports whether any enemy of owner is within r of entity id.
func (g *Game) hostileWithin(id, owner int, r float64) bool {
	for _, nb := range g.dist.ClosestTo(id, 0, 0, r) {
		e := g.reg.Get(nb.EntityID)
		if e != nil && !e.Dead() && e.Kind() != entity.KindResource && entity.Hostile(owner, e) {
			return true
		}
	}
	return false
}
