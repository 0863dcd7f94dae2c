package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	plog "github.com/vicksonzero/shroom-io/internal/persistence/log"
	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/game"
	"github.com/vicksonzero/shroom-io/internal/sim/tuning"
)

func main() {
	var (
		dataDir    = flag.String("data", "./data", "runtime data directory containing events/")
		tuningPath = flag.String("tuning", "", "tuning.yaml the server ran with (optional)")
		seed       = flag.Int64("seed", 1, "world seed the server ran with")
		toTick     = flag.Int64("to_tick", -1, "stop after tick (inclusive, optional)")
	)
	flag.Parse()

	tu, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tuning:", err)
		os.Exit(1)
	}
	files, err := plog.JournalFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *dataDir)
		os.Exit(1)
	}

	g, err := game.New(game.Config{Tuning: tu, Seed: *seed, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		fmt.Fprintln(os.Stderr, "game:", err)
		os.Exit(1)
	}
	r := &replayer{g: g, toTick: *toTick}
	for _, path := range files {
		entries, err := plog.ReadSteps(path)
		if err != nil && len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		if err != nil {
			// Truncated tail of the file the server was writing.
			fmt.Fprintln(os.Stderr, "warning:", err)
		}
		done, err := r.replay(entries)
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if done {
			break
		}
	}
	fmt.Printf("replay ok: checked=%d entries, last tick=%d digest=%s\n", r.checked, g.CurrentTick(), g.StateDigest())
}

type replayer struct {
	g       *game.Game
	toTick  int64
	checked int
}

// replay steps the game through entries, running empty steps between
// logged ticks, and compares each logged digest. done reports that toTick
// was reached.
func (r *replayer) replay(entries []game.StepLogEntry) (done bool, err error) {
	for _, e := range entries {
		if r.toTick >= 0 && e.Tick > r.toTick {
			return true, nil
		}
		if e.Tick < r.g.CurrentTick() {
			return false, fmt.Errorf("entry tick %d is behind game tick %d", e.Tick, r.g.CurrentTick())
		}
		for r.g.CurrentTick() < e.Tick {
			r.g.StepOnce(nil, nil, nil)
		}

		connects := make([]game.ConnectRequest, 0, len(e.Connects))
		for _, id := range e.Connects {
			connects = append(connects, game.ConnectRequest{
				SessionID: id,
				Encoding:  protocol.EncodingJSON,
				Out:       make(chan []byte, 1),
			})
		}
		cmds := make([]game.Command, 0, len(e.Commands))
		for _, rc := range e.Commands {
			msg, err := protocol.DecodeAs(rc.Type, rc.Payload)
			if err != nil {
				return false, fmt.Errorf("tick %d: %w", e.Tick, err)
			}
			cmds = append(cmds, game.Command{SessionID: rc.SessionID, Msg: msg})
		}

		tick, digest := r.g.StepOnce(connects, e.Leaves, cmds)
		if tick != e.Tick {
			return false, fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, e.Tick)
		}
		r.checked++
		if digest != e.Digest {
			return false, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, e.Digest)
		}
	}
	return false, nil
}
