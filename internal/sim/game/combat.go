package game

import (
	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/effects"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

// shoot schedules a bullet from n to targetID. Damage lands when the bullet resolves.
func (g *Game) shoot(n *entity.Node, targetID int) {
	b := effects.Bullet{
		ID:        g.reg.NextID(),
		FromID:    n.ID,
		ToID:      targetID,
		Damage:    g.tu.Shooting.Damage,
		StartTick: g.rec.tick,
		FlyTime:   int64(g.tu.Shooting.BulletFlyTimeMs),
	}
	g.bullets.Schedule(b)
	g.window.bulletsFired++
	g.broadcast(protocol.ToggleShootingMsg{
		Type:            protocol.TypeToggleShooting,
		ProtocolVersion: protocol.Version,
		Tick:            g.rec.tick,
		Bullet: protocol.BulletState{
			EID:           b.ID,
			FromEID:       b.FromID,
			ToEID:         b.ToID,
			Damage:        b.Damage,
			FromFixedTime: b.StartTick,
			TimeLength:    b.FlyTime,
		},
	})
}
