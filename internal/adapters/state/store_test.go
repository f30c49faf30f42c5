package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldops/shieldops/internal/core"
)

func sampleSession(t *testing.T, eventType string, start time.Time) *core.SessionState {
	t.Helper()
	s := core.NewSessionState(core.Event{"type": eventType, "severity": "high"})
	s.SessionStart = start
	s.Classification = &core.EventClassification{
		EventType:  eventType,
		TaskType:   core.TaskTypeRemediation,
		Priority:   core.PriorityHigh,
		Confidence: 0.95,
		Reasoning:  "rule match",
	}
	s.RecordTask(&core.DelegatedTask{
		TaskID:    "task-1",
		AgentName: "remediation-runner",
		TaskType:  core.TaskTypeRemediation,
		Status:    core.TaskStatusCompleted,
		Result:    map[string]any{"applied": true},
	})
	s.AppendStep(core.StageClassify, "in", "out", 3*time.Millisecond, "rules")
	s.CurrentStep = core.StageComplete
	s.DurationMS = 42
	return s
}

func stores(t *testing.T) map[string]core.SessionStore {
	t.Helper()
	jsonStore, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)
	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	return map[string]core.SessionStore{"json": jsonStore, "sqlite": sqliteStore}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			want := sampleSession(t, "disk_full", time.Now().UTC().Truncate(time.Millisecond))

			require.NoError(t, store.Save(ctx, want))
			got, err := store.Load(ctx, want.SessionID)
			require.NoError(t, err)

			assert.Equal(t, want.SessionID, got.SessionID)
			assert.Equal(t, core.StageComplete, got.CurrentStep)
			require.Len(t, got.DelegatedTasks, 1)
			assert.Equal(t, "remediation-runner", got.DelegatedTasks[0].AgentName)
			require.Len(t, got.ReasoningChain, 1)
			assert.Equal(t, 1, got.ReasoningChain[0].StepNumber)
			assert.Equal(t, "disk_full", got.Event.Type())
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			s := sampleSession(t, "disk_full", time.Now())

			require.NoError(t, store.Save(ctx, s))
			s.DurationMS = 99
			require.NoError(t, store.Save(ctx, s))

			got, err := store.Load(ctx, s.SessionID)
			require.NoError(t, err)
			assert.EqualValues(t, 99, got.DurationMS)

			list, err := store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			_, err := store.Load(context.Background(), "sess-missing")
			require.Error(t, err)
			assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			old := sampleSession(t, "disk_full", time.Now().Add(-time.Hour))
			recent := sampleSession(t, "service_down", time.Now())

			require.NoError(t, store.Save(ctx, old))
			require.NoError(t, store.Save(ctx, recent))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, recent.SessionID, list[0].SessionID)
			assert.Equal(t, old.SessionID, list[1].SessionID)
		})
	}
}

func TestDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			s := sampleSession(t, "disk_full", time.Now())

			require.NoError(t, store.Save(ctx, s))
			require.NoError(t, store.Delete(ctx, s.SessionID))

			_, err := store.Load(ctx, s.SessionID)
			require.Error(t, err)

			err = store.Delete(ctx, s.SessionID)
			require.Error(t, err)
			assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
		})
	}
}

func TestJSONStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Load(context.Background(), "../escape")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestFactorySelectsBackend(t *testing.T) {
	jsonStore, err := New(Config{Backend: "json", Path: t.TempDir()})
	require.NoError(t, err)
	defer jsonStore.Close()
	_, ok := jsonStore.(*JSONStore)
	assert.True(t, ok)

	sqliteStore, err := New(Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	defer sqliteStore.Close()
	_, ok = sqliteStore.(*SQLiteStore)
	assert.True(t, ok)

	_, err = New(Config{Backend: "stone_tablets"})
	require.Error(t, err)
}
