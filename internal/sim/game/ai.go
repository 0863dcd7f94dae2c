package game

import (
	"math"

	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

// Angles tried, in order, when the straight line toward a resource is blocked.
var buildAngleOffsets = []float64{0, 0.5, -0.5, 1, -1, 1.5, -1.5}

func (g *Game) updatePlayers() {
	for _, p := range g.reg.Players() {
		if p.Human || p.Dead() || p.AINextTick > g.rec.tick {
			continue
		}
		p.AINextTick = g.rec.tick + int64(g.tu.Timing.AIIntervalMs)
		g.updateAIExpansion(p)
		g.updateAIArming(p)
	}
}

// updateAIExpansion grows the NPC's tree toward the nearest resource none of
// its nodes can mine yet.
func (g *Game) updateAIExpansion(p *entity.Player) {
	if p.Mineral < g.tu.Costs.Bud {
		return
	}
	if p.TargetID != entity.NoOwner {
		if r := g.reg.Resource(p.TargetID); r == nil || g.reached(p, r.ID) {
			p.TargetID = entity.NoOwner
		}
	}
	if p.TargetID == entity.NoOwner {
		p.TargetID = g.pickExpansionTarget(p)
	}
	res := g.reg.Resource(p.TargetID)
	if res == nil {
		return
	}

	from, d := g.closestOwnStructure(p, res.ID)
	if from == nil {
		return
	}
	step := g.tu.Build.RadiusMax
	if d <= g.tu.Build.RadiusMax {
		step = math.Max(d-g.tu.Build.RadiusMin, g.tu.Build.RadiusMin)
	}
	fb := from.Ref()
	base := math.Atan2(res.Y-fb.Y, res.X-fb.X)
	for _, off := range buildAngleOffsets {
		a := base + off
		req := buildRequest{
			playerID: p.ID,
			parentID: fb.ID,
			x:        fb.X + math.Cos(a)*step,
			y:        fb.Y + math.Sin(a)*step,
		}
		if _, rej := g.build(req); rej == nil {
			return
		}
	}
}

// reached reports whether one of p's nodes is within mining distance of resID.
func (g *Game) reached(p *entity.Player, resID int) bool {
	for _, nb := range g.dist.ClosestTo(resID, 0, 0, g.tu.Mining.Distance) {
		if n := g.reg.Node(nb.EntityID); n != nil && n.PlayerEntityID == p.ID {
			return true
		}
	}
	return false
}

func (g *Game) pickExpansionTarget(p *entity.Player) int {
	for _, nb := range g.dist.ClosestTo(p.ID, 0, 0, math.Inf(1)) {
		r := g.reg.Resource(nb.EntityID)
		if r == nil || g.reached(p, r.ID) {
			continue
		}
		return r.ID
	}
	return entity.NoOwner
}

// closestOwnStructure finds the player or one of its nodes nearest to target.
func (g *Game) closestOwnStructure(p *entity.Player, targetID int) (entity.Entity, float64) {
	for _, nb := range g.dist.ClosestTo(targetID, 0, 0, math.Inf(1)) {
		switch e := g.reg.Get(nb.EntityID).(type) {
		case *entity.Player:
			if e.ID == p.ID {
				return e, nb.Distance
			}
		case *entity.Node:
			if e.PlayerEntityID == p.ID {
				return e, nb.Distance
			}
		}
	}
	return nil, 0
}

// updateAIArming turns a bud facing an enemy into a shooter when affordable.
func (g *Game) updateAIArming(p *entity.Player) {
	if p.Mineral < g.tu.Costs.Shooter {
		return
	}
	for _, n := range g.reg.NodesOwnedBy(p.ID) {
		if n.Type != entity.NodeBud {
			continue
		}
		if !g.hostileWithin(n.ID, p.ID, g.tu.Shooting.Distance) {
			continue
		}
		if rej := g.morph(p, n.ID, entity.NodeShooter); rej == nil {
			return
		}
	}
}
