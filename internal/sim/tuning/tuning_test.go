package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if d.Timing.FrameSizeMs != 16 || d.Timing.MaxFrameCatchup != 100 {
		t.Fatalf("timing: %+v", d.Timing)
	}
	if d.Mining.Distance != 100 || d.Mining.TimeMs != 2000 || d.Mining.IntervalMs != 5000 {
		t.Fatalf("mining: %+v", d.Mining)
	}
	if d.Shooting.Distance != 120 || d.Costs.Shooter != 20 || d.Costs.Swarm != 40 {
		t.Fatalf("combat: %+v %+v", d.Shooting, d.Costs)
	}
	if got := d.StepSeconds(); got != 0.016 {
		t.Fatalf("StepSeconds=%v", got)
	}
}

func TestLoadOverridesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("mining:\n  amount: 25\nworld:\n  npc_count: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.Mining.Amount != 25 || tu.World.NPCCount != 0 {
		t.Fatalf("override not applied: %+v %+v", tu.Mining, tu.World)
	}
	if tu.Mining.Distance != 100 || tu.World.Width != 2000 {
		t.Fatalf("defaults lost: %+v %+v", tu.Mining, tu.World)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("timing:\n  frame_size_ms: 0\nbuild:\n  radius_min: 200\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
