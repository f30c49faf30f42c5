// Package state persists finished supervisor sessions for audit. Two
// backends are provided: one JSON file per session, and a single SQLite
// database.
package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/shieldops/shieldops/internal/core"
)

// JSONStore keeps each session as one JSON file in a directory. Writes go
// through an atomic rename so a crash never leaves a torn file.
type JSONStore struct {
	dir string
	mu  sync.RWMutex
}

// NewJSONStore creates the store, creating dir if needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "creating session directory").WithCause(err)
	}
	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) path(sessionID string) (string, error) {
	if sessionID == "" || filepath.Base(sessionID) != sessionID {
		return "", core.ErrValidation("BAD_SESSION_ID", "invalid session id: "+sessionID)
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}

// Save persists a session atomically, overwriting any previous record.
func (s *JSONStore) Save(_ context.Context, state *core.SessionState) error {
	path, err := s.path(state.SessionID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return core.ErrState(core.CodeStateCorrupted, "marshaling session").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return core.ErrState(core.CodeStateCorrupted, "writing session file").WithCause(err)
	}
	return nil
}

// Load retrieves a session by ID.
func (s *JSONStore) Load(_ context.Context, sessionID string) (*core.SessionState, error) {
	path, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(sessionID)
		}
		return nil, core.ErrState(core.CodeStateCorrupted, "reading session file").WithCause(err)
	}
	var state core.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "parsing session file "+path).WithCause(err)
	}
	return &state, nil
}

// List returns summaries of all stored sessions, newest first.
func (s *JSONStore) List(ctx context.Context) ([]core.Summary, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "reading session directory").WithCause(err)
	}

	summaries := make([]core.Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		state, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			// A corrupt file should not hide the rest of the audit log.
			continue
		}
		summaries = append(summaries, state.Summarize())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

// Delete removes a session by ID.
func (s *JSONStore) Delete(_ context.Context, sessionID string) error {
	path, err := s.path(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return notFound(sessionID)
		}
		return core.ErrState(core.CodeStateCorrupted, "removing session file").WithCause(err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *JSONStore) Close() error { return nil }

func notFound(sessionID string) error {
	return &core.DomainError{
		Category: core.ErrCatNotFound,
		Code:     core.CodeSessionNotFound,
		Message:  "session not found: " + sessionID,
	}
}
