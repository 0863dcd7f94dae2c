package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vicksonzero/shroom-io/internal/persistence/indexdb"
	"github.com/vicksonzero/shroom-io/internal/sim/game"
	"github.com/vicksonzero/shroom-io/internal/sim/tuning"
)

func newTestMux(t *testing.T, opts handlerOptions) (*http.ServeMux, *game.Game) {
	t.Helper()
	tu := tuning.Defaults()
	tu.World.NPCCount = 2
	tu.World.ResourceCount = 3
	g, err := game.New(game.Config{Tuning: tu, Seed: 5, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.Update(time.Now())
	mux := http.NewServeMux()
	registerHandlers(mux, g, nil, opts, log.New(io.Discard, "", 0))
	return mux, g
}

func TestHealthAndMetrics(t *testing.T) {
	mux, _ := newTestMux(t, handlerOptions{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != 200 || rec.Body.String() != "ok" {
		t.Fatalf("healthz=%d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		"shroom_game_players 2",
		"shroom_game_resources 3",
		`shroom_game_queue_depth{queue="inbox"} 0`,
		`shroom_game_pending_effects{kind="bullet"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "shroom_index_") {
		t.Fatalf("index metrics without an index:\n%s", body)
	}
}

func TestAdminStateLoopbackOnly(t *testing.T) {
	mux, g := newTestMux(t, handlerOptions{EnableAdmin: true})

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote status=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("loopback status=%d", rec.Code)
	}
	var resp struct {
		Tick    int64        `json:"tick"`
		Metrics game.Metrics `json:"metrics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Tick != g.CurrentTick() || resp.Metrics.Players != 2 {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestAdminDisabled(t *testing.T) {
	mux, _ := newTestMux(t, handlerOptions{})
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestWriteMetricsWithIndex(t *testing.T) {
	var sb strings.Builder
	writeMetrics(&sb, game.Metrics{}, indexdb.Stats{QueueDepth: 4, DropTotal: 2}, true)
	if !strings.Contains(sb.String(), "shroom_index_queue_depth 4") || !strings.Contains(sb.String(), "shroom_index_dropped_total 2") {
		t.Fatalf("metrics:\n%s", sb.String())
	}
}

type countingLogger struct{ n int }

func (c *countingLogger) WriteStep(game.StepLogEntry) error {
	c.n++
	return nil
}

func TestMultiStepLoggerFansOut(t *testing.T) {
	a, b := &countingLogger{}, &countingLogger{}
	m := multiStepLogger{a, nil, b}
	_ = m.WriteStep(game.StepLogEntry{Tick: 16})
	if a.n != 1 || b.n != 1 {
		t.Fatalf("a=%d b=%d", a.n, b.n)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:80": true,
		"[::1]:80":     true,
		"10.0.0.2:80":  false,
		"garbage":      false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
}
