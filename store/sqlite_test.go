package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestCaptureAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Capture("u-1", "trace_event", map[string]any{"trace_id": "t1", "latency": 0.5})
	s.Capture("u-2", "span_event", map[string]any{"trace_id": "t1", "span_id": "s1"})

	events, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, "span_event", events[0].Name)
	assert.Equal(t, "u-2", events[0].SubjectID)
	assert.Equal(t, "s1", events[0].Properties["span_id"])
	assert.Equal(t, "trace_event", events[1].Name)
	assert.Equal(t, 0.5, events[1].Properties["latency"])
	assert.False(t, events[0].CapturedAt.IsZero())
}

func TestRecentFiltersByEvent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Capture("u", "trace_event", nil)
	s.Capture("u", "generation_event", nil)
	s.Capture("u", "generation_event", nil)

	events, err := s.Recent(ctx, "generation_event", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "generation_event", ev.Name)
	}
}

func TestCountByEvent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Capture("u", "trace_event", nil)
	s.Capture("u", "span_event", nil)
	s.Capture("u", "span_event", nil)

	counts, err := s.CountByEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"trace_event": 1, "span_event": 2}, counts)
}

func TestSubjects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Capture("alice", "trace_event", nil)
	s.Capture("bob", "trace_event", nil)
	s.Capture("alice", "span_event", nil)

	subjects, err := s.Subjects(ctx, 10)
	require.NoError(t, err)
	// Most recently seen first.
	assert.Equal(t, []string{"alice", "bob"}, subjects)
}

func TestConcurrentCaptures(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.Capture("u", "trace_event", map[string]any{"j": j})
			}
		}()
	}
	wg.Wait()

	counts, err := s.CountByEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), counts["trace_event"])
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	s.Capture("u", "trace_event", nil)
	require.NoError(t, s.Close())

	s2, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	events, err := s2.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
