package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vicksonzero/shroom-io/internal/persistence/indexdb"
	persistlog "github.com/vicksonzero/shroom-io/internal/persistence/log"
	"github.com/vicksonzero/shroom-io/internal/sim/game"
	"github.com/vicksonzero/shroom-io/internal/sim/tuning"
	"github.com/vicksonzero/shroom-io/internal/telemetry"
	"github.com/vicksonzero/shroom-io/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":3000", "http listen address")
		seed       = flag.Int64("seed", 1, "world seed")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml overriding the built-in defaults (optional)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		disableLog = flag.Bool("disable_journal", false, "disable the step journal")
		noStats    = flag.Bool("disable_telemetry", false, "disable telemetry.csv")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(strings.TrimSpace(*tuningPath))
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	_ = os.MkdirAll(*dataDir, 0o755)

	g, err := game.New(game.Config{
		Tuning:             tune,
		Seed:               *seed,
		EnableDebugInspect: envBool("SHROOM_ENABLE_DEBUG_INSPECT", false),
		Logger:             log.New(os.Stdout, "[game] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("game: %v", err)
	}

	// Optional read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "shroom.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.RecordTuning(tune, *seed); err != nil {
			logger.Printf("index: record tuning: %v", err)
		}
	}

	var journal *persistlog.StepLogger
	if !*disableLog {
		journal = persistlog.NewStepLogger(*dataDir)
		defer journal.Close()
	}
	steps := multiStepLogger{}
	if journal != nil {
		steps = append(steps, journal)
	}
	if idx != nil {
		steps = append(steps, idx)
	}
	if len(steps) > 0 {
		g.SetStepLogger(steps)
	}

	if !*noStats {
		out, err := telemetry.NewOutput(*dataDir)
		if err != nil {
			logger.Fatalf("telemetry: %v", err)
		}
		defer out.Close()
		g.SetStatsSink(out)
	}

	ctx, cancel := signalContext()
	defer cancel()

	gameDone := make(chan struct{})
	go func() {
		defer close(gameDone)
		if err := g.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("game stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	registerHandlers(mux, g, idx, handlerOptions{
		EnableAdmin: envBool("SHROOM_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		EnablePprof: envBool("SHROOM_ENABLE_PPROF_HTTP", false),
	}, logger)
	mux.HandleFunc("/v1/ws", ws.NewServer(g, ws.Config{
		CommandRate:  tune.Transport.CommandRate,
		CommandBurst: tune.Transport.CommandBurst,
	}, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (seed=%d)", *addr, *seed)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-gameDone
	logger.Printf("stopped at tick=%d", g.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

// multiStepLogger fans one step entry out to every sink.
type multiStepLogger []game.StepLogger

func (m multiStepLogger) WriteStep(entry game.StepLogEntry) error {
	for _, l := range m {
		if l != nil {
			_ = l.WriteStep(entry)
		}
	}
	return nil
}
