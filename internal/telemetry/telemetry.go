// Package telemetry writes per-window simulation statistics as CSV.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
)

// WindowStats summarises one telemetry window of simulated time.
type WindowStats struct {
	Tick             int64   `csv:"tick"`
	Players          int     `csv:"players"`
	Nodes            int     `csv:"nodes"`
	Orphans          int     `csv:"orphans"`
	Resources        int     `csv:"resources"`
	BulletsFired     int     `csv:"bullets_fired"`
	TransfersApplied int     `csv:"transfers_applied"`
	Kills            int     `csv:"kills"`
	Rejections       int     `csv:"rejections"`
	Steps            int     `csv:"steps"`
	StepMeanMS       float64 `csv:"step_mean_ms"`
	StepStdMS        float64 `csv:"step_std_ms"`
	StepMaxMS        float64 `csv:"step_max_ms"`
}

// Output appends WindowStats rows to <dir>/telemetry.csv. A nil *Output
// discards everything.
type Output struct {
	mu            sync.Mutex
	dir           string
	f             *os.File
	headerWritten bool
}

// NewOutput returns nil when dir is empty (output disabled).
func NewOutput(dir string) (*Output, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	return &Output{dir: dir, f: f}, nil
}

func (o *Output) WriteWindow(stats WindowStats) error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	records := []WindowStats{stats}
	if !o.headerWritten {
		if err := gocsv.Marshal(records, o.f); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		o.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, o.f); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

func (o *Output) Path() string {
	if o == nil {
		return ""
	}
	return filepath.Join(o.dir, "telemetry.csv")
}

func (o *Output) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.f.Close()
}

// ReadWindows parses a telemetry.csv written by Output.
func ReadWindows(path string) ([]WindowStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []WindowStats
	if err := gocsv.UnmarshalFile(f, &out); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return out, nil
}
