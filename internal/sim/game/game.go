package game

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/distance"
	"github.com/vicksonzero/shroom-io/internal/sim/effects"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
	"github.com/vicksonzero/shroom-io/internal/sim/physics"
	"github.com/vicksonzero/shroom-io/internal/sim/tuning"
)

type Config struct {
	Tuning tuning.Tuning
	Seed   int64

	// EnableDebugInspect allows DEBUG_INSPECT commands.
	EnableDebugInspect bool

	// SkipPopulate leaves the world empty instead of spawning resources and NPCs.
	SkipPopulate bool

	Logger *log.Logger
}

// Game is a single-threaded authoritative simulation.
// All state must be accessed only from the game loop goroutine.
type Game struct {
	cfg Config
	tu  tuning.Tuning
	log *log.Logger
	rng *rand.Rand

	reg       *entity.Registry
	phys      *physics.World
	dist      *distance.Matrix
	transfers effects.Queue[effects.Transfer]
	bullets   effects.Queue[effects.Bullet]

	tick       atomic.Int64
	started    bool
	lastUpdate time.Time

	clients map[string]*client

	connect chan ConnectRequest
	leave   chan string
	inbox   chan Command
	stop    chan struct{}

	pendingConnects []ConnectRequest
	pendingLeaves   []string
	pendingCommands []Command

	nextStateTick     int64
	nextFullStateTick int64
	nextRespawnTick   int64
	nextWindowTick    int64

	stepLogger StepLogger
	statsSink  StatsSink

	rec      stepRecord
	window   windowCounters
	contacts int64

	metrics atomic.Value
}

func New(cfg Config) (*Game, error) {
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[game] ", log.LstdFlags|log.Lmicroseconds)
	}
	seed := uint64(cfg.Seed)
	g := &Game{
		cfg: cfg,
		tu:  cfg.Tuning,
		log: logger,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		reg: entity.NewRegistry(),
		phys: physics.NewWorld(physics.Config{
			PixelsPerMeter:     cfg.Tuning.Physics.PixelsPerMeter,
			VelocityIterations: cfg.Tuning.Physics.VelocityIterations,
			PositionIterations: cfg.Tuning.Physics.PositionIterations,
		}),
		clients: map[string]*client{},
		connect: make(chan ConnectRequest, 64),
		leave:   make(chan string, 64),
		inbox:   make(chan Command, 1024),
		stop:    make(chan struct{}),
	}
	g.dist = distance.New(transformSource{reg: g.reg})
	g.registerContactHandlers()
	if !cfg.SkipPopulate {
		g.populate()
	}
	g.nextRespawnTick = int64(g.tu.World.ResourceRespawnMs)
	g.nextWindowTick = int64(g.tu.Timing.TelemetryWindowMs)
	g.publishMetrics(0, 0)
	return g, nil
}

func (g *Game) SetStepLogger(l StepLogger) { g.stepLogger = l }
func (g *Game) SetStatsSink(s StatsSink)   { g.statsSink = s }

func (g *Game) Connect() chan<- ConnectRequest { return g.connect }
func (g *Game) Leave() chan<- string           { return g.leave }
func (g *Game) Inbox() chan<- Command          { return g.inbox }

// CurrentTick is safe to call from any goroutine.
func (g *Game) CurrentTick() int64 { return g.tick.Load() }

func (g *Game) Tuning() tuning.Tuning { return g.tu }

// WorldParams is the static world description sent in WELCOME.
func (g *Game) WorldParams() protocol.WorldParams {
	tu := g.tu
	return protocol.WorldParams{
		FrameSizeMs:      tu.Timing.FrameSizeMs,
		Width:            tu.World.Width,
		Height:           tu.World.Height,
		VisibilityRadius: tu.World.VisibilityRadius,
		BuildRadiusMin:   tu.Build.RadiusMin,
		BuildRadiusMax:   tu.Build.RadiusMax,
		MiningDistance:   tu.Mining.Distance,
		ShootingDistance: tu.Shooting.Distance,
		BudCost:          tu.Costs.Bud,
		ShooterCost:      tu.Costs.Shooter,
		SwarmCost:        tu.Costs.Swarm,
		ConverterCost:    tu.Costs.Converter,
		Seed:             g.cfg.Seed,
	}
}

// Run drives Update from a ticker until ctx is done or Stop is called.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.tu.FrameSize())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.stop:
			return nil
		case req := <-g.connect:
			g.pendingConnects = append(g.pendingConnects, req)
		case id := <-g.leave:
			g.pendingLeaves = append(g.pendingLeaves, id)
		case cmd := <-g.inbox:
			g.pendingCommands = append(g.pendingCommands, cmd)
		case now := <-ticker.C:
			g.Update(now)
		}
	}
}

func (g *Game) Stop() { close(g.stop) }

// Update runs as many fixed steps as wall clock time allows, at most
// MaxFrameCatchup, and then pushes state to sessions. It returns the number
// of steps run.
func (g *Game) Update(now time.Time) int {
	frame := g.tu.FrameSize()
	steps := 0
	if !g.started {
		g.started = true
		g.lastUpdate = now
		g.fixedStep()
		steps = 1
	} else {
		for g.lastUpdate.Add(frame).Before(now) && steps < g.tu.Timing.MaxFrameCatchup {
			g.fixedStep()
			g.lastUpdate = g.lastUpdate.Add(frame)
			steps++
		}
		if steps == g.tu.Timing.MaxFrameCatchup && g.lastUpdate.Add(frame).Before(now) {
			g.log.Printf("tick=%d catch-up limit reached, dropping %s of wall clock", g.tick.Load(), now.Sub(g.lastUpdate))
		}
		g.lastUpdate = now
	}
	if steps > 0 {
		g.broadcastState()
	}
	g.publishMetrics(steps, time.Since(now))
	return steps
}

// StepOnce runs a single fixed step with the given inputs and returns the
// tick it ran at and the state digest afterwards. Used by replay and tests.
func (g *Game) StepOnce(connects []ConnectRequest, leaves []string, cmds []Command) (tick int64, digest string) {
	g.pendingConnects = append(g.pendingConnects, connects...)
	g.pendingLeaves = append(g.pendingLeaves, leaves...)
	g.pendingCommands = append(g.pendingCommands, cmds...)
	tick = g.tick.Load()
	g.fixedStep()
	return tick, g.StateDigest()
}

func (g *Game) fixedStep() {
	start := time.Now()
	tick := g.tick.Load()
	g.rec = stepRecord{tick: tick}

	g.phase("commands", tick, g.drainInputs)
	g.phase("physics", tick, func() { g.phys.Step(g.tu.StepSeconds()) })
	g.phase("distance", tick, g.dist.Init)
	g.phase("effects", tick, g.resolveEffects)
	g.phase("node-ai", tick, g.updateNodes)
	g.phase("player-ai", tick, g.updatePlayers)
	g.phase("cleanup", tick, g.cleanupDeadEntities)
	g.phase("respawn", tick, g.respawnResources)

	g.tick.Store(tick + int64(g.tu.Timing.FrameSizeMs))

	g.window.observeStep(time.Since(start))
	g.writeStepLog()
	g.flushWindow()
}

// phase runs fn and recovers a panic so one failing system does not stop the loop.
func (g *Game) phase(name string, tick int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Printf("tick=%d phase=%s panic: %v", tick, name, r)
		}
	}()
	fn()
}

func (g *Game) drainInputs() {
	leaves, connects, cmds := g.pendingLeaves, g.pendingConnects, g.pendingCommands
	g.pendingLeaves, g.pendingConnects, g.pendingCommands = nil, nil, nil

	// Connects then leaves, both before any command. A session that
	// connects and leaves within one tick is registered and then removed.
	for _, req := range connects {
		g.handleConnect(req)
		g.rec.connects = append(g.rec.connects, req.SessionID)
	}
	for _, id := range leaves {
		if g.handleLeave(id) {
			g.rec.leaves = append(g.rec.leaves, id)
		}
	}
	for _, cmd := range cmds {
		g.applyCommand(cmd)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func sendEvent(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}
