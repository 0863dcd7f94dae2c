package main

import (
	"io"
	"log"
	"testing"

	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/game"
	"github.com/vicksonzero/shroom-io/internal/sim/tuning"
)

type memLog struct{ entries []game.StepLogEntry }

func (m *memLog) WriteStep(e game.StepLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newGame(t *testing.T) *game.Game {
	t.Helper()
	tu := tuning.Defaults()
	tu.World.NPCCount = 3
	tu.World.ResourceCount = 6
	g, err := game.New(game.Config{Tuning: tu, Seed: 99, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func record(t *testing.T) []game.StepLogEntry {
	t.Helper()
	g := newGame(t)
	ml := &memLog{}
	g.SetStepLogger(ml)

	out := make(chan []byte, 256)
	g.StepOnce([]game.ConnectRequest{{SessionID: "s1", Encoding: protocol.EncodingJSON, Out: out}}, nil,
		[]game.Command{{SessionID: "s1", Msg: &protocol.StartMsg{Name: "ann"}}})
	for i := 0; i < 400; i++ {
		var cmds []game.Command
		if i == 50 {
			cmds = append(cmds, game.Command{SessionID: "s1", Msg: &protocol.CreateNodeMsg{Ref: "a", X: 1000, Y: 1000, PlayerEntityID: -1, ParentNodeID: -1}})
		}
		var leaves []string
		if i == 300 {
			leaves = append(leaves, "s1")
		}
		g.StepOnce(nil, leaves, cmds)
		for len(out) > 0 {
			<-out
		}
	}
	return ml.entries
}

func TestReplayMatchesRecordedDigests(t *testing.T) {
	entries := record(t)
	if len(entries) < 3 {
		t.Fatalf("entries=%d", len(entries))
	}
	r := &replayer{g: newGame(t), toTick: -1}
	if _, err := r.replay(entries); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if r.checked != len(entries) {
		t.Fatalf("checked=%d want=%d", r.checked, len(entries))
	}
}

func TestReplayDetectsDivergence(t *testing.T) {
	entries := record(t)
	last := len(entries) - 1
	entries[last].Digest = "bogus"
	r := &replayer{g: newGame(t), toTick: -1}
	if _, err := r.replay(entries); err == nil {
		t.Fatalf("expected digest mismatch")
	}
}

func TestReplayStopsAtToTick(t *testing.T) {
	entries := record(t)
	r := &replayer{g: newGame(t), toTick: entries[0].Tick}
	done, err := r.replay(entries)
	if err != nil || !done || r.checked != 1 {
		t.Fatalf("done=%v checked=%d err=%v", done, r.checked, err)
	}
}
