// Package capture is an HTTP event sink for kiroku. Events are queued in
// memory and flushed in batches to the ingestion endpoint by a background
// goroutine; delivery is fire-and-forget from the caller's point of view.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultHost          = "https://ingest.kiroku.dev"
	defaultFlushAt       = 20
	defaultFlushInterval = 5 * time.Second
	defaultQueueSize     = 1024
	defaultTimeout       = 30 * time.Second
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// APIKey authenticates batch uploads. Required.
	APIKey string

	// Host is the root URL of the ingestion endpoint.
	// Defaults to the hosted service.
	Host string

	// FlushAt is the batch size that triggers an immediate flush.
	FlushAt int

	// FlushInterval is how long a partial batch may wait before it is
	// flushed anyway.
	FlushInterval time.Duration

	// QueueSize bounds the in-memory queue. When the queue is full new
	// events are dropped, never blocking the caller.
	QueueSize int

	// HTTPClient is an optional custom HTTP client. If nil, a default
	// client with a 30-second timeout is used.
	HTTPClient *http.Client

	// Logger receives delivery diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client buffers events and ships them to the ingestion endpoint in
// batches. It implements kiroku.Sink. Safe for concurrent use.
type Client struct {
	host          string
	apiKey        string
	flushAt       int
	flushInterval time.Duration
	client        *http.Client
	logger        *slog.Logger

	queue   chan queuedEvent
	done    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool
	dropped atomic.Int64
}

type queuedEvent struct {
	SubjectID  string         `json:"subject_id"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	Timestamp  time.Time      `json:"timestamp"`
}

type batchBody struct {
	APIKey string        `json:"api_key"`
	Batch  []queuedEvent `json:"batch"`
}

// NewClient creates a Client and starts its background flusher.
// Returns an error if APIKey is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("capture: APIKey is required")
	}

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	host = strings.TrimRight(host, "/")

	flushAt := cfg.FlushAt
	if flushAt <= 0 {
		flushAt = defaultFlushAt
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		host:          host,
		apiKey:        cfg.APIKey,
		flushAt:       flushAt,
		flushInterval: interval,
		client:        httpClient,
		logger:        logger,
		queue:         make(chan queuedEvent, queueSize),
		done:          make(chan struct{}),
	}

	c.wg.Add(1)
	go c.loop()

	return c, nil
}

// Capture enqueues one event. When the queue is full the event is dropped
// and counted — the caller is never blocked.
func (c *Client) Capture(subjectID, event string, properties map[string]any) {
	if c.closed.Load() {
		c.dropped.Add(1)
		return
	}
	ev := queuedEvent{
		SubjectID:  subjectID,
		Event:      event,
		Properties: properties,
		Timestamp:  time.Now().UTC(),
	}
	select {
	case c.queue <- ev:
	default:
		if c.dropped.Add(1) == 1 {
			c.logger.Warn("capture: queue full, dropping events")
		}
	}
}

// Dropped reports how many events were discarded because the queue was full
// or the client was closed.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops the flusher, drains any queued events in one final flush, and
// returns. Capture calls after Close drop their events.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)
	c.wg.Wait()
	return nil
}

// loop accumulates events into batches and flushes on size or interval.
func (c *Client) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]queuedEvent, 0, c.flushAt)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		c.send(batch)
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-c.queue:
			batch = append(batch, ev)
			if len(batch) >= c.flushAt {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-c.done:
			// Drain whatever is left, then do a final flush.
			for {
				select {
				case ev := <-c.queue:
					batch = append(batch, ev)
					if len(batch) >= c.flushAt {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (c *Client) send(batch []queuedEvent) {
	body, err := json.Marshal(batchBody{APIKey: c.apiKey, Batch: batch})
	if err != nil {
		c.logger.Error("capture: marshal batch", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/batch", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("capture: create request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("capture: deliver batch", "error", err, "events", len(batch))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("capture: batch rejected",
			"status", resp.StatusCode, "events", len(batch), "body", string(msg))
		return
	}

	c.logger.Debug("capture: batch delivered", "events", len(batch))
}
