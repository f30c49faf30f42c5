package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/shieldops/shieldops/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_sessions.sql
var migrationV1 string

// SQLiteStore keeps all sessions in one SQLite database. The full session is
// stored as a JSON payload; summary columns are duplicated so listings never
// deserialize every session.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "creating database directory").WithCause(err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "opening database").WithCause(err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return core.ErrState(core.CodeStateCorrupted, "applying migration v1").WithCause(err)
		}
	}
	return nil
}

// Save upserts a session.
func (s *SQLiteStore) Save(ctx context.Context, state *core.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return core.ErrState(core.CodeStateCorrupted, "marshaling session").WithCause(err)
	}
	sum := state.Summarize()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, event_type, current_step, tasks, chains, escalations, started_at, duration_ms, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			event_type = excluded.event_type,
			current_step = excluded.current_step,
			tasks = excluded.tasks,
			chains = excluded.chains,
			escalations = excluded.escalations,
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms,
			payload = excluded.payload`,
		sum.SessionID, sum.EventType, string(sum.CurrentStep),
		sum.Tasks, sum.Chains, sum.Escalations,
		sum.StartedAt, sum.DurationMS, string(payload),
	)
	if err != nil {
		return core.ErrState(core.CodeStateCorrupted, "saving session").WithCause(err)
	}
	return nil
}

// Load retrieves a session by ID.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*core.SessionState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM sessions WHERE session_id = ?", sessionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, notFound(sessionID)
	}
	if err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "loading session").WithCause(err)
	}
	var state core.SessionState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "parsing session payload").WithCause(err)
	}
	return &state, nil
}

// List returns summaries of all stored sessions, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]core.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, event_type, current_step, tasks, chains, escalations, started_at, duration_ms
		FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "listing sessions").WithCause(err)
	}
	defer rows.Close()

	summaries := make([]core.Summary, 0)
	for rows.Next() {
		var sum core.Summary
		var step string
		if err := rows.Scan(&sum.SessionID, &sum.EventType, &step,
			&sum.Tasks, &sum.Chains, &sum.Escalations,
			&sum.StartedAt, &sum.DurationMS); err != nil {
			return nil, core.ErrState(core.CodeStateCorrupted, "scanning session row").WithCause(err)
		}
		sum.CurrentStep = core.Stage(step)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "iterating sessions").WithCause(err)
	}
	return summaries, nil
}

// Delete removes a session by ID.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return core.ErrState(core.CodeStateCorrupted, "deleting session").WithCause(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(sessionID)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }
