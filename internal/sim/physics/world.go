package physics

import (
	"sort"

	"github.com/ByteArena/box2d"
)

type Config struct {
	PixelsPerMeter     float64
	VelocityIterations int
	PositionIterations int
}

// World adapts a box2d world to entity owners. Body creation and
// destruction are queued and applied only between box2d steps.
type World struct {
	cfg Config
	b2  box2d.B2World

	bodies        []*Body
	createQueue   []*Body
	destroyQueue  []*Body
	pendingCreate map[*Body]bool

	begin []contactHandler
	end   []contactHandler
}

func NewWorld(cfg Config) *World {
	if cfg.PixelsPerMeter <= 0 {
		cfg.PixelsPerMeter = 20
	}
	if cfg.VelocityIterations <= 0 {
		cfg.VelocityIterations = 10
	}
	if cfg.PositionIterations <= 0 {
		cfg.PositionIterations = 10
	}
	w := &World{
		cfg:           cfg,
		b2:            box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		pendingCreate: map[*Body]bool{},
	}
	w.b2.SetAllowSleeping(false)
	w.b2.SetContactListener(contactListener{w: w})
	return w
}

// ScheduleCreateBody returns a handle now; the box2d body appears at the next flush.
func (w *World) ScheduleCreateBody(owner Owner, def BodyDef) *Body {
	b := &Body{def: def, owner: owner}
	w.createQueue = append(w.createQueue, b)
	w.pendingCreate[b] = true
	return b
}

// ScheduleDestroyBody detaches the owner immediately. Repeated calls are no-ops.
func (w *World) ScheduleDestroyBody(b *Body) {
	if b == nil || b.destroyed {
		return
	}
	b.destroyed = true
	b.owner = nil
	if w.pendingCreate[b] {
		// never reached box2d
		delete(w.pendingCreate, b)
		return
	}
	w.destroyQueue = append(w.destroyQueue, b)
}

// Step flushes queued mutations, pushes owner state into bodies, advances
// box2d by dt seconds, flushes again and pulls state back into owners.
func (w *World) Step(dt float64) {
	w.flush()
	for _, b := range w.bodies {
		w.writeBody(b)
	}
	w.b2.Step(dt, w.cfg.VelocityIterations, w.cfg.PositionIterations)
	w.flush()
	for _, b := range w.bodies {
		w.readBody(b)
	}
}

func (w *World) flush() {
	if w.b2.IsLocked() {
		return
	}
	if len(w.destroyQueue) > 0 {
		for _, b := range w.destroyQueue {
			if b.b2 == nil {
				continue
			}
			for _, f := range b.fixtures {
				f.Body = nil
			}
			b.b2.SetUserData(nil)
			w.b2.DestroyBody(b.b2)
			b.b2 = nil
		}
		w.destroyQueue = w.destroyQueue[:0]
		live := w.bodies[:0]
		for _, b := range w.bodies {
			if b.b2 != nil {
				live = append(live, b)
			}
		}
		for i := len(live); i < len(w.bodies); i++ {
			w.bodies[i] = nil
		}
		w.bodies = live
	}
	if len(w.createQueue) > 0 {
		for _, b := range w.createQueue {
			if !w.pendingCreate[b] {
				continue
			}
			delete(w.pendingCreate, b)
			w.createBody(b)
			w.bodies = append(w.bodies, b)
		}
		w.createQueue = w.createQueue[:0]
	}
}

func (w *World) createBody(b *Body) {
	s := b.owner.BodyState()
	def := box2d.MakeB2BodyDef()
	if b.def.Dynamic {
		def.Type = box2d.B2BodyType.B2_dynamicBody
	} else {
		def.Type = box2d.B2BodyType.B2_staticBody
	}
	def.Position = w.toMeters(s.X, s.Y)
	def.Angle = degToRad(s.Angle)
	def.AllowSleep = false
	def.UserData = b
	b.b2 = w.b2.CreateBody(&def)

	for _, fd := range b.def.Fixtures {
		shape := box2d.MakeB2CircleShape()
		shape.M_radius = fd.Radius / w.cfg.PixelsPerMeter
		fdef := box2d.MakeB2FixtureDef()
		fdef.Shape = &shape
		fdef.Density = fd.Density
		fdef.Friction = fd.Friction
		fdef.Restitution = fd.Restitution
		fdef.IsSensor = fd.IsSensor
		fdef.Filter.CategoryBits = fd.Category
		fdef.Filter.MaskBits = fd.Mask
		fx := &Fixture{Label: fd.Label, Body: b}
		fdef.UserData = fx
		b.b2.CreateFixtureFromDef(&fdef)
		b.fixtures = append(b.fixtures, fx)
	}
}

func (w *World) writeBody(b *Body) {
	if b.owner == nil || b.b2 == nil {
		return
	}
	s := b.owner.BodyState()
	b.b2.SetTransform(w.toMeters(s.X, s.Y), degToRad(s.Angle))
	if b.def.Dynamic {
		b.b2.SetLinearVelocity(w.toMeters(s.VX, s.VY))
		b.b2.SetAngularVelocity(degToRad(s.VAngle))
	}
}

// readBody copies simulated state back. Static bodies never move, so their
// owners keep their exact coordinates.
func (w *World) readBody(b *Body) {
	if b.owner == nil || b.b2 == nil || !b.def.Dynamic {
		return
	}
	p := b.b2.GetPosition()
	v := b.b2.GetLinearVelocity()
	b.owner.SetBodyState(State{
		X:      p.X * w.cfg.PixelsPerMeter,
		Y:      p.Y * w.cfg.PixelsPerMeter,
		Angle:  radToDeg(b.b2.GetAngle()),
		VX:     v.X * w.cfg.PixelsPerMeter,
		VY:     v.Y * w.cfg.PixelsPerMeter,
		VAngle: radToDeg(b.b2.GetAngularVelocity()),
	})
}

func (w *World) toMeters(x, y float64) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(x/w.cfg.PixelsPerMeter, y/w.cfg.PixelsPerMeter)
}

// BodyCount counts bodies that exist in box2d.
func (w *World) BodyCount() int { return len(w.bodies) }

// PendingCount reports queued creations and destructions.
func (w *World) PendingCount() (create, destroy int) {
	return len(w.pendingCreate), len(w.destroyQueue)
}

type BodyInfo struct {
	EntityID int      `json:"entity_id"`
	Label    string   `json:"label"`
	Fixtures []string `json:"fixtures"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Angle    float64  `json:"angle"`
	VX       float64  `json:"vx"`
	VY       float64  `json:"vy"`
}

// BodyData lists every live body in pixel units, ordered by entity id.
func (w *World) BodyData() []BodyInfo {
	out := make([]BodyInfo, 0, len(w.bodies))
	for _, b := range w.bodies {
		if b.b2 == nil {
			continue
		}
		info := BodyInfo{EntityID: -1, Label: b.def.Label}
		if b.owner != nil {
			info.EntityID = b.owner.EntityID()
		}
		for _, f := range b.fixtures {
			info.Fixtures = append(info.Fixtures, f.Label)
		}
		p := b.b2.GetPosition()
		v := b.b2.GetLinearVelocity()
		info.X = p.X * w.cfg.PixelsPerMeter
		info.Y = p.Y * w.cfg.PixelsPerMeter
		info.Angle = radToDeg(b.b2.GetAngle())
		info.VX = v.X * w.cfg.PixelsPerMeter
		info.VY = v.Y * w.cfg.PixelsPerMeter
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}
