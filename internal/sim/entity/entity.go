package entity

import (
	"fmt"

	"github.com/vicksonzero/shroom-io/internal/sim/physics"
)

// NoOwner marks an orphaned Node, an unassigned target or a missing parent.
const NoOwner = -1

type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindNode
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNode:
		return "node"
	case KindResource:
		return "resource"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type NodeType uint8

const (
	NodeRoot NodeType = iota
	NodeBud
	NodeConverter
	NodeShooter
	NodeSwarm
)

var nodeTypeNames = [...]string{
	NodeRoot:      "root",
	NodeBud:       "bud",
	NodeConverter: "converter",
	NodeShooter:   "shooter",
	NodeSwarm:     "swarm",
}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("node_type(%d)", uint8(t))
}

func ParseNodeType(s string) (NodeType, bool) {
	for i, n := range nodeTypeNames {
		if n == s {
			return NodeType(i), true
		}
	}
	return 0, false
}

// Shoots reports whether the node type runs the shooting AI.
func (t NodeType) Shoots() bool {
	return t == NodeShooter || t == NodeSwarm
}

// CanMorph reports whether a node of type from may become type to.
// Buds specialise; any specialised node can revert to a bud. Roots never change.
func CanMorph(from, to NodeType) bool {
	if from == to || from == NodeRoot || to == NodeRoot {
		return false
	}
	if from == NodeBud {
		return to == NodeConverter || to == NodeShooter || to == NodeSwarm
	}
	return to == NodeBud
}

// Base is the part shared by every entity. Positions are pixels, angles degrees.
type Base struct {
	ID     int
	X, Y   float64
	Angle  float64
	R      float64
	VX, VY float64
	VAngle float64
	Body   *physics.Body
}

func (b *Base) EntityID() int { return b.ID }

func (b *Base) BodyState() physics.State {
	return physics.State{X: b.X, Y: b.Y, Angle: b.Angle, VX: b.VX, VY: b.VY, VAngle: b.VAngle}
}

func (b *Base) SetBodyState(s physics.State) {
	b.X, b.Y, b.Angle = s.X, s.Y, s.Angle
	b.VX, b.VY, b.VAngle = s.VX, s.VY, s.VAngle
}

// Entity is implemented by *Player, *Node and *Resource only.
type Entity interface {
	Kind() Kind
	Ref() *Base
	Dead() bool
}

type Player struct {
	Base
	Name      string
	Hue       int
	HP        int
	MaxHP     int
	Mineral   int
	Ammo      int
	Human     bool
	SessionID string

	AINextTick int64
	TargetID   int
}

type Node struct {
	Base
	Type           NodeType
	HP             int
	MaxHP          int
	PlayerEntityID int
	ParentNodeID   int
	BirthTick      int64
	NextCanMine    int64
	NextCanShoot   int64
	TargetID       int
}

type Resource struct {
	Base
	Mineral int
	Ammo    int
}

func (p *Player) Kind() Kind   { return KindPlayer }
func (p *Player) Ref() *Base   { return &p.Base }
func (p *Player) Dead() bool   { return p.HP <= 0 }
func (n *Node) Kind() Kind     { return KindNode }
func (n *Node) Ref() *Base     { return &n.Base }
func (n *Node) Dead() bool     { return n.HP <= 0 }
func (r *Resource) Kind() Kind { return KindResource }
func (r *Resource) Ref() *Base { return &r.Base }
func (r *Resource) Dead() bool { return r.Mineral+r.Ammo <= 0 }

// Orphaned reports whether the node has lost its owning player.
func (n *Node) Orphaned() bool { return n.PlayerEntityID == NoOwner }

// OwnerOf returns the player id an entity fights for: the player itself,
// a node's owner, or NoOwner for resources and orphans.
func OwnerOf(e Entity) int {
	switch v := e.(type) {
	case *Player:
		return v.ID
	case *Node:
		return v.PlayerEntityID
	case *Resource:
		return NoOwner
	default:
		return NoOwner
	}
}

// Hostile reports whether a node owned by owner may attack target.
func Hostile(owner int, target Entity) bool {
	switch v := target.(type) {
	case *Player:
		return v.ID != owner
	case *Node:
		return v.PlayerEntityID != owner
	default:
		return false
	}
}
