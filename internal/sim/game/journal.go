package game

import "encoding/json"

// StepLogger receives one entry for each step that had inputs or outcomes,
// and for every DigestEveryTicks-th step. Implemented in internal/persistence/*.
type StepLogger interface {
	WriteStep(entry StepLogEntry) error
}

type StepLogEntry struct {
	Tick       int64               `json:"tick"`
	Connects   []string            `json:"connects,omitempty"`
	Leaves     []string            `json:"leaves,omitempty"`
	Commands   []RecordedCommand   `json:"commands,omitempty"`
	Spawns     []RecordedSpawn     `json:"spawns,omitempty"`
	Rejections []RecordedRejection `json:"rejections,omitempty"`
	Killed     []RecordedKill      `json:"killed,omitempty"`
	Digest     string              `json:"digest"`
}

type RecordedCommand struct {
	SessionID string          `json:"session_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type RecordedSpawn struct {
	SessionID string `json:"session_id"`
	PlayerID  int    `json:"player_id"`
	Name      string `json:"name"`
	Human     bool   `json:"human"`
}

type RecordedRejection struct {
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
	Ref       string `json:"ref,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
}

type RecordedKill struct {
	EntityID int    `json:"entity_id"`
	Kind     string `json:"kind"`
	Owner    int    `json:"owner"`
}

type stepRecord struct {
	tick       int64
	connects   []string
	leaves     []string
	commands   []RecordedCommand
	spawns     []RecordedSpawn
	rejections []RecordedRejection
	killed     []RecordedKill
}

func (r *stepRecord) empty() bool {
	return len(r.connects) == 0 && len(r.leaves) == 0 && len(r.commands) == 0 &&
		len(r.spawns) == 0 && len(r.rejections) == 0 && len(r.killed) == 0
}

func (g *Game) writeStepLog() {
	if g.stepLogger == nil {
		return
	}
	every := int64(g.tu.Timing.DigestEveryTicks) * int64(g.tu.Timing.FrameSizeMs)
	periodic := every > 0 && g.rec.tick%every == 0
	if g.rec.empty() && !periodic {
		return
	}
	entry := StepLogEntry{
		Tick:       g.rec.tick,
		Connects:   g.rec.connects,
		Leaves:     g.rec.leaves,
		Commands:   g.rec.commands,
		Spawns:     g.rec.spawns,
		Rejections: g.rec.rejections,
		Killed:     g.rec.killed,
		Digest:     g.StateDigest(),
	}
	if err := g.stepLogger.WriteStep(entry); err != nil {
		g.log.Printf("tick=%d step log: %v", g.rec.tick, err)
	}
}
