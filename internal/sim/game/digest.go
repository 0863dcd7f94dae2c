package game

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"lukechampine.com/blake3"

	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

// StateDigest hashes the tick, every entity in id order and the pending
// effects. Two games fed the same inputs produce the same digest.
func (g *Game) StateDigest() string {
	h := blake3.New(32, nil)
	var buf [8]byte
	wi := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	wf := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	ws := func(s string) {
		wi(int64(len(s)))
		h.Write([]byte(s))
	}

	wi(g.tick.Load())
	wi(int64(g.reg.PeekNextID()))
	for _, e := range g.reg.All() {
		b := e.Ref()
		wi(int64(e.Kind()))
		wi(int64(b.ID))
		wf(b.X)
		wf(b.Y)
		wf(b.R)
		switch v := e.(type) {
		case *entity.Player:
			ws(v.Name)
			wi(int64(v.HP))
			wi(int64(v.Mineral))
			wi(int64(v.Ammo))
			wi(v.AINextTick)
			wi(int64(v.TargetID))
		case *entity.Node:
			wi(int64(v.Type))
			wi(int64(v.HP))
			wi(int64(v.PlayerEntityID))
			wi(int64(v.ParentNodeID))
			wi(v.NextCanMine)
			wi(v.NextCanShoot)
			wi(int64(v.TargetID))
		case *entity.Resource:
			wi(int64(v.Mineral))
			wi(int64(v.Ammo))
		}
	}
	for _, t := range g.transfers.Pending() {
		wi(int64(t.ID))
		wi(int64(t.ToID))
		wi(int64(t.Mineral))
		wi(t.ArrivalTick())
	}
	for _, b := range g.bullets.Pending() {
		wi(int64(b.ID))
		wi(int64(b.ToID))
		wi(int64(b.Damage))
		wi(b.ArrivalTick())
	}
	return hex.EncodeToString(h.Sum(nil))
}
