package game

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vicksonzero/shroom-io/internal/sim/entity"
	"github.com/vicksonzero/shroom-io/internal/telemetry"
)

// Metrics is a thread-safe read-only view of key game runtime signals.
// It is updated from the game loop goroutine and read from HTTP handlers/tests.
type Metrics struct {
	Tick      int64 `json:"tick"`
	Players   int   `json:"players"`
	Humans    int   `json:"humans"`
	Nodes     int   `json:"nodes"`
	Orphans   int   `json:"orphans"`
	Resources int   `json:"resources"`
	Sessions  int   `json:"sessions"`

	PendingTransfers int   `json:"pending_transfers"`
	PendingBullets   int   `json:"pending_bullets"`
	PhysicsBodies    int   `json:"physics_bodies"`
	ContactsTotal    int64 `json:"contacts_total"`

	QueueDepths QueueDepths `json:"queue_depths"`

	LastUpdateSteps int     `json:"last_update_steps"`
	UpdateMS        float64 `json:"update_ms"`
	DroppedFrames   int     `json:"dropped_frames"`
}

type QueueDepths struct {
	Inbox   int `json:"inbox"`
	Connect int `json:"connect"`
	Leave   int `json:"leave"`
}

func (g *Game) Metrics() Metrics {
	if g == nil {
		return Metrics{}
	}
	v := g.metrics.Load()
	if v == nil {
		return Metrics{}
	}
	m, ok := v.(Metrics)
	if !ok {
		return Metrics{}
	}
	return m
}

func (g *Game) publishMetrics(steps int, took time.Duration) {
	players, nodes, resources := g.reg.Counts()
	m := Metrics{
		Tick:             g.tick.Load(),
		Players:          players,
		Nodes:            nodes,
		Orphans:          len(g.reg.NodesOwnedBy(entity.NoOwner)),
		Resources:        resources,
		Sessions:         len(g.clients),
		PendingTransfers: g.transfers.Len(),
		PendingBullets:   g.bullets.Len(),
		PhysicsBodies:    g.phys.BodyCount(),
		ContactsTotal:    g.contacts,
		QueueDepths: QueueDepths{
			Inbox:   len(g.inbox),
			Connect: len(g.connect),
			Leave:   len(g.leave),
		},
		LastUpdateSteps: steps,
		UpdateMS:        float64(took.Microseconds()) / 1000,
	}
	for _, p := range g.reg.Players() {
		if p.Human {
			m.Humans++
		}
	}
	for _, c := range g.clients {
		m.DroppedFrames += c.dropped
	}
	g.metrics.Store(m)
}

// StatsSink receives one record per telemetry window.
type StatsSink interface {
	WriteWindow(w telemetry.WindowStats) error
}

type windowCounters struct {
	stepMS           []float64
	bulletsFired     int
	transfersApplied int
	kills            int
	rejections       int
}

func (w *windowCounters) observeStep(d time.Duration) {
	w.stepMS = append(w.stepMS, float64(d.Microseconds())/1000)
}

func (g *Game) flushWindow() {
	if g.tu.Timing.TelemetryWindowMs <= 0 || g.tick.Load() < g.nextWindowTick {
		return
	}
	g.nextWindowTick = g.tick.Load() + int64(g.tu.Timing.TelemetryWindowMs)
	w := g.window
	g.window = windowCounters{}
	if g.statsSink == nil {
		return
	}
	players, nodes, resources := g.reg.Counts()
	rec := telemetry.WindowStats{
		Tick:             g.tick.Load(),
		Players:          players,
		Nodes:            nodes,
		Orphans:          len(g.reg.NodesOwnedBy(entity.NoOwner)),
		Resources:        resources,
		BulletsFired:     w.bulletsFired,
		TransfersApplied: w.transfersApplied,
		Kills:            w.kills,
		Rejections:       w.rejections,
		Steps:            len(w.stepMS),
	}
	if len(w.stepMS) > 0 {
		rec.StepMeanMS = stat.Mean(w.stepMS, nil)
		if len(w.stepMS) > 1 {
			rec.StepStdMS = stat.StdDev(w.stepMS, nil)
		}
		for _, v := range w.stepMS {
			if v > rec.StepMaxMS {
				rec.StepMaxMS = v
			}
		}
	}
	if err := g.statsSink.WriteWindow(rec); err != nil {
		g.log.Printf("tick=%d telemetry: %v", g.tick.Load(), err)
	}
}
