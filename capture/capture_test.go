package capture

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchRecorder collects every /batch upload the client makes.
type batchRecorder struct {
	mu      sync.Mutex
	batches []batchBody
}

func (r *batchRecorder) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, req *http.Request) {
		var body batchBody
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decode batch: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.mu.Lock()
		r.batches = append(r.batches, body)
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (r *batchRecorder) events() []queuedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []queuedEvent
	for _, b := range r.batches {
		out = append(out, b.Batch...)
	}
	return out
}

func newTestClient(t *testing.T, host string, cfg Config) *Client {
	t.Helper()
	cfg.APIKey = "test-key"
	cfg.Host = host
	c, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestCloseDrainsQueue(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{FlushAt: 100, FlushInterval: time.Hour})
	for i := 0; i < 7; i++ {
		c.Capture("u", "trace_event", map[string]any{"i": i})
	}
	require.NoError(t, c.Close())

	events := rec.events()
	require.Len(t, events, 7)
	assert.Equal(t, "u", events[0].SubjectID)
	assert.Equal(t, "trace_event", events[0].Event)
}

func TestFlushAtBatchSize(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{FlushAt: 3, FlushInterval: time.Hour})
	for i := 0; i < 3; i++ {
		c.Capture("u", "span_event", nil)
	}

	// The flusher should ship a full batch without waiting for the ticker.
	require.Eventually(t, func() bool {
		return len(rec.events()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	assert.Equal(t, "test-key", rec.batches[0].APIKey)
	rec.mu.Unlock()
}

func TestFlushOnInterval(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{FlushAt: 100, FlushInterval: 30 * time.Millisecond})
	c.Capture("u", "generation_event", map[string]any{"model": "gpt-4o"})

	require.Eventually(t, func() bool {
		return len(rec.events()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueFullDropsWithoutBlocking(t *testing.T) {
	// Stall the flusher inside a send so the queue cannot drain.
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		APIKey:        "test-key",
		Host:          srv.URL,
		FlushAt:       1,
		FlushInterval: time.Hour,
		QueueSize:     2,
	})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	defer close(release)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			c.Capture("u", "trace_event", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Capture blocked on a full queue")
	}
	assert.Greater(t, c.Dropped(), int64(0))
}

func TestCaptureAfterCloseDrops(t *testing.T) {
	rec := &batchRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{})
	require.NoError(t, c.Close())

	c.Capture("u", "trace_event", nil)
	assert.Equal(t, int64(1), c.Dropped())
	assert.Empty(t, rec.events())
}

func TestRejectedBatchIsNotRetried(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{FlushAt: 1, FlushInterval: time.Hour})
	c.Capture("u", "trace_event", nil)
	require.NoError(t, c.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "delivery failures are fire-and-forget")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("KIROKU_API_KEY", "env-key")
	t.Setenv("KIROKU_HOST", "https://kiroku.internal")
	t.Setenv("KIROKU_FLUSH_AT", "50")
	t.Setenv("KIROKU_FLUSH_INTERVAL", "2s")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "https://kiroku.internal", cfg.Host)
	assert.Equal(t, 50, cfg.FlushAt)
	assert.Equal(t, 2*time.Second, cfg.FlushInterval)
}

func TestConfigFromEnvRequiresKey(t *testing.T) {
	t.Setenv("KIROKU_API_KEY", "")
	_, err := ConfigFromEnv()
	assert.Error(t, err)
}
