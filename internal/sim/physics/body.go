package physics

import (
	"math"

	"github.com/ByteArena/box2d"
)

// Collision categories for fixture filters.
const (
	CategoryPlayer   uint16 = 1 << 0
	CategoryNode     uint16 = 1 << 1
	CategoryResource uint16 = 1 << 2
	CategoryAll      uint16 = 0xFFFF
)

// State is an owner's kinematic state in world units: pixels and degrees.
type State struct {
	X, Y   float64
	Angle  float64
	VX, VY float64
	VAngle float64
}

// Owner is the game object a Body mirrors.
type Owner interface {
	EntityID() int
	BodyState() State
	SetBodyState(State)
}

type FixtureDef struct {
	Label       string
	Radius      float64
	Density     float64
	Friction    float64
	Restitution float64
	IsSensor    bool
	Category    uint16
	Mask        uint16
}

type BodyDef struct {
	Label    string
	Dynamic  bool
	Fixtures []FixtureDef
}

// Body is the handle returned by ScheduleCreateBody. The box2d body behind it
// exists only between the flush that created it and the flush that destroys it.
type Body struct {
	def       BodyDef
	owner     Owner
	b2        *box2d.B2Body
	fixtures  []*Fixture
	destroyed bool
}

// Fixture is stored as box2d fixture user data.
type Fixture struct {
	Label string
	Body  *Body
}

// Owner returns nil once the body is scheduled for destruction.
func (b *Body) Owner() Owner {
	if b == nil {
		return nil
	}
	return b.owner
}

func (b *Body) Label() string { return b.def.Label }

// Live reports whether the body has been created and not scheduled for destruction.
func (b *Body) Live() bool {
	return b != nil && !b.destroyed && b.b2 != nil
}

func (b *Body) invalidated() bool {
	return b == nil || b.destroyed || b.owner == nil
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
