package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vicksonzero/shroom-io/internal/sim/distance"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
	"github.com/vicksonzero/shroom-io/internal/sim/physics"
)

var npcNames = []string{
	"Amanita", "Boletus", "Chanterelle", "Enoki", "Morel",
	"Porcini", "Reishi", "Shiitake", "Truffle", "Puffball",
	"Oyster", "Maitake", "Cremini", "Lion's Mane", "Inkcap",
}

func (g *Game) populate() {
	for i := 0; i < g.tu.World.ResourceCount; i++ {
		g.spawnResourceRandom()
	}
	for i := 0; i < g.tu.World.NPCCount; i++ {
		name := "AI " + npcNames[g.rng.IntN(len(npcNames))]
		x, y := g.randomPosition(g.tu.Entities.PlayerRadius * 2)
		g.spawnPlayer(x, y, name, false)
	}
}

func (g *Game) spawnPlayer(x, y float64, name string, human bool) *entity.Player {
	tick := g.tick.Load()
	p := &entity.Player{
		Base:       entity.Base{ID: g.reg.NextID(), X: x, Y: y, R: g.tu.Entities.PlayerRadius},
		Name:       name,
		Hue:        g.rng.IntN(360),
		HP:         g.tu.Entities.PlayerHP,
		MaxHP:      g.tu.Entities.PlayerHP,
		Mineral:    g.tu.Entities.StartMineral,
		Human:      human,
		AINextTick: tick,
		TargetID:   entity.NoOwner,
	}
	g.reg.AddPlayer(p)
	p.Body = g.phys.ScheduleCreateBody(p, physics.BodyDef{
		Label: "player",
		Fixtures: []physics.FixtureDef{{
			Label: "player", Radius: p.R, Density: 1, Friction: 0.3,
			Category: physics.CategoryPlayer, Mask: physics.CategoryAll,
		}},
	})
	g.dist.InsertTransform(transformOf(p))
	return p
}

func (g *Game) spawnNode(x, y float64, typ entity.NodeType, playerID, parentID int) *entity.Node {
	tick := g.tick.Load()
	n := &entity.Node{
		Base:           entity.Base{ID: g.reg.NextID(), X: x, Y: y, R: g.tu.Entities.NodeRadius},
		Type:           typ,
		HP:             g.tu.Entities.NodeHP,
		MaxHP:          g.tu.Entities.NodeHP,
		PlayerEntityID: playerID,
		ParentNodeID:   parentID,
		BirthTick:      tick,
		NextCanMine:    tick,
		NextCanShoot:   tick,
		TargetID:       entity.NoOwner,
	}
	g.reg.AddNode(n)
	n.Body = g.phys.ScheduleCreateBody(n, physics.BodyDef{
		Label: "node",
		Fixtures: []physics.FixtureDef{{
			Label: "node", Radius: n.R, Density: 1, Friction: 0.3,
			Category: physics.CategoryNode, Mask: physics.CategoryAll,
		}},
	})
	g.dist.InsertTransform(transformOf(n))
	return n
}

func (g *Game) spawnResource(x, y float64, mineral int) *entity.Resource {
	r := &entity.Resource{
		Base:    entity.Base{ID: g.reg.NextID(), X: x, Y: y, R: g.tu.Entities.ResourceRadius},
		Mineral: mineral,
	}
	g.reg.AddResource(r)
	r.Body = g.phys.ScheduleCreateBody(r, physics.BodyDef{
		Label: "resource",
		Fixtures: []physics.FixtureDef{{
			Label: "resource", Radius: r.R, Density: 1, Friction: 0.3,
			Category: physics.CategoryResource, Mask: physics.CategoryAll,
		}},
	})
	g.dist.InsertTransform(transformOf(r))
	return r
}

func (g *Game) spawnResourceRandom() *entity.Resource {
	x, y := g.randomResourcePosition()
	return g.spawnResource(x, y, g.tu.World.ResourceAmount)
}

// randomPosition picks a spot inside the padded world whose circle of radius
// clear touches no entity. After 100 tries the last candidate is used.
func (g *Game) randomPosition(clear float64) (float64, float64) {
	var x, y float64
	for i := 0; i < 100; i++ {
		x, y = g.randomPoint()
		if _, hit := g.overlaps(x, y, clear); !hit {
			break
		}
	}
	return x, y
}

func (g *Game) randomResourcePosition() (float64, float64) {
	var x, y float64
	for i := 0; i < 100; i++ {
		x, y = g.randomPoint()
		ok := true
		for _, r := range g.reg.Resources() {
			if math.Hypot(x-r.X, y-r.Y) < g.tu.World.ResourceClearRadius+r.R {
				ok = false
				break
			}
		}
		if ok {
			if _, hit := g.overlaps(x, y, g.tu.Entities.ResourceRadius); !hit {
				break
			}
		}
	}
	return x, y
}

func (g *Game) randomPoint() (float64, float64) {
	pad := g.tu.World.SpawnPadding
	x := pad + g.rng.Float64()*(g.tu.World.Width-2*pad)
	y := pad + g.rng.Float64()*(g.tu.World.Height-2*pad)
	return x, y
}

// respawnResources tops resources back up on the respawn interval.
func (g *Game) respawnResources() {
	if g.rec.tick < g.nextRespawnTick {
		return
	}
	g.nextRespawnTick = g.rec.tick + int64(g.tu.World.ResourceRespawnMs)
	_, _, have := g.reg.Counts()
	for i := have; i < g.tu.World.ResourceCount; i++ {
		r := g.spawnResourceRandom()
		g.log.Printf("tick=%d resource %d respawned at (%.0f,%.0f)", g.rec.tick, r.ID, r.X, r.Y)
	}
}

// registerContactHandlers counts overlaps that begin between a player and
// another player or a node. Bodies never push each other, so contacts are
// observed only.
func (g *Game) registerContactHandlers() {
	count := func(a, b *physics.Fixture) { g.contacts++ }
	g.phys.RegisterBeginContactHandler("player-player", physics.ByBodyLabel, "player", "player", count)
	g.phys.RegisterBeginContactHandler("node-player", physics.ByBodyLabel, "node", "player", count)
}

func transformOf(e entity.Entity) distance.Transform {
	b := e.Ref()
	return distance.Transform{ID: b.ID, Pos: r2.Vec{X: b.X, Y: b.Y}}
}

// transformSource feeds the distance matrix from the registry.
type transformSource struct {
	reg *entity.Registry
}

func (s transformSource) Transforms() []distance.Transform {
	all := s.reg.All()
	out := make([]distance.Transform, 0, len(all))
	for _, e := range all {
		out = append(out, transformOf(e))
	}
	return out
}

func (s transformSource) Transform(id int) (distance.Transform, bool) {
	e := s.reg.Get(id)
	if e == nil {
		return distance.Transform{}, false
	}
	return transformOf(e), true
}
