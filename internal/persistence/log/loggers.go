package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/vicksonzero/shroom-io/internal/sim/game"
)

// Journal appends JSON lines to zstd files, one file per UTC hour. Reopening
// an existing hour appends a new zstd frame to it.
type Journal struct {
	dir    string
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	seg *segment
}

func NewJournal(dir, prefix string) *Journal {
	return &Journal{dir: dir, prefix: prefix, now: time.Now}
}

// Append writes v as one line and flushes it into the compressor.
func (j *Journal) Append(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := j.now().UTC().Format("2006-01-02-15")
	if j.seg == nil || j.seg.hour != hour {
		if err := j.switchTo(hour); err != nil {
			return err
		}
	}
	return j.seg.append(v)
}

// Segment reports the open file and how many lines it received since it was
// opened. The path is empty before the first Append.
func (j *Journal) Segment() (path string, entries int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.seg == nil {
		return "", 0
	}
	return j.seg.path, j.seg.entries
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	err := j.seg.close()
	j.seg = nil
	return err
}

func (j *Journal) switchTo(hour string) error {
	err := j.seg.close()
	j.seg = nil
	if err != nil {
		return fmt.Errorf("close journal segment: %w", err)
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	seg, err := openSegment(filepath.Join(j.dir, j.prefix+"-"+hour+".jsonl.zst"), hour)
	if err != nil {
		return err
	}
	j.seg = seg
	return nil
}

type segment struct {
	hour    string
	path    string
	entries int

	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func openSegment(path, hour string) (*segment, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	buf := bufio.NewWriterSize(zw, 128*1024)
	return &segment{hour: hour, path: path, file: f, zw: zw, buf: buf, enc: json.NewEncoder(buf)}, nil
}

func (s *segment) append(v any) error {
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(s.path), err)
	}
	s.entries++
	return s.buf.Flush()
}

// close finishes the zstd frame. A nil segment closes cleanly.
func (s *segment) close() error {
	if s == nil {
		return nil
	}
	return errors.Join(s.buf.Flush(), s.zw.Close(), s.file.Close())
}

// StepLogger journals one entry per logged simulation step.
type StepLogger struct{ j *Journal }

func NewStepLogger(dataDir string) *StepLogger {
	return &StepLogger{j: NewJournal(filepath.Join(dataDir, "events"), "events")}
}

func (l *StepLogger) WriteStep(e game.StepLogEntry) error { return l.j.Append(e) }
func (l *StepLogger) Close() error                        { return l.j.Close() }

// JournalFiles lists the step journal files under dataDir in write order.
func JournalFiles(dataDir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dataDir, "events", "events-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadSteps decodes every entry of one journal file. Files still being
// written may end in a partial frame; entries before it are returned with
// the error.
func ReadSteps(path string) ([]game.StepLogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out []game.StepLogEntry
	dec := json.NewDecoder(zr)
	for {
		var e game.StepLogEntry
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
}
