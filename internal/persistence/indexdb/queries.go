package indexdb

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

type SessionRow struct {
	SessionID string `json:"session_id"`
	PlayerID  int    `json:"player_id"`
	Name      string `json:"name"`
	Human     bool   `json:"human"`
	StartTick int64  `json:"start_tick"`
	EndTick   *int64 `json:"end_tick,omitempty"`
}

type KillRow struct {
	Tick     int64  `json:"tick"`
	EntityID int    `json:"entity_id"`
	Kind     string `json:"kind"`
	Owner    int    `json:"owner"`
}

type RejectionRow struct {
	Tick      int64  `json:"tick"`
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
	Ref       string `json:"ref,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
}

// Open opens an index written by a server for querying.
func Open(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

func Sessions(ctx context.Context, db *sql.DB, limit int) ([]SessionRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT session_id,player_id,name,human,start_tick,end_tick FROM sessions ORDER BY start_tick DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var end sql.NullInt64
		if err := rows.Scan(&r.SessionID, &r.PlayerID, &r.Name, &r.Human, &r.StartTick, &end); err != nil {
			return nil, err
		}
		if end.Valid {
			v := end.Int64
			r.EndTick = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Kills lists recent deaths, optionally only entities owned by owner (-1 for all).
func Kills(ctx context.Context, db *sql.DB, owner int, limit int) ([]KillRow, error) {
	q := `SELECT tick,entity_id,kind,owner FROM kills`
	args := []any{}
	if owner >= 0 {
		q += ` WHERE owner=?`
		args = append(args, owner)
	}
	q += ` ORDER BY tick DESC, entity_id LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []KillRow
	for rows.Next() {
		var r KillRow
		if err := rows.Scan(&r.Tick, &r.EntityID, &r.Kind, &r.Owner); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rejections lists recent rejected commands, optionally filtered by code.
func Rejections(ctx context.Context, db *sql.DB, code string, limit int) ([]RejectionRow, error) {
	q := `SELECT tick,session_id,command,COALESCE(ref,''),code,COALESCE(message,'') FROM rejections`
	args := []any{}
	if code != "" {
		q += ` WHERE code=?`
		args = append(args, code)
	}
	q += ` ORDER BY tick DESC, seq LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RejectionRow
	for rows.Next() {
		var r RejectionRow
		if err := rows.Scan(&r.Tick, &r.SessionID, &r.Command, &r.Ref, &r.Code, &r.Message); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
