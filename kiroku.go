// Package kiroku is an in-process tracing SDK for LLM applications.
//
// A caller describes a hierarchical unit of work — a Trace decomposed into
// nested Spans, Generations, and Embeddings — and kiroku converts each unit,
// at the moment it ends, into one structured analytics event delivered to a
// pluggable Sink:
//
//	sink, err := capture.NewClient(capture.Config{APIKey: key})
//	if err != nil { ... }
//	client, err := kiroku.New(sink, kiroku.WithDefaultSubject("user-123"))
//	if err != nil { ... }
//
//	trace, err := client.Trace(kiroku.TraceParams{Name: "answer-question"})
//	gen, err := trace.Generation(kiroku.GenerationParams{
//	    Name:  "draft",
//	    Model: "gpt-4o",
//	    Input: prompt,
//	})
//	// ... call the model ...
//	gen.End(kiroku.GenerationParams{Output: completion})
//	trace.End(kiroku.TraceParams{OutputState: answer})
//
// Entities are plain mutable records with no internal locking; each instance
// is owned by one logical flow. Independent traces may run concurrently in
// the same process — they share only the immutable Client.
package kiroku

import (
	"log/slog"

	"github.com/google/uuid"
)

// Client holds the process-wide tracing configuration: the event sink, the
// default privacy flag, and the default subject id. It is immutable after
// New and safe to share across goroutines. Construct one at startup and pass
// it wherever traces are created.
type Client struct {
	sink           Sink
	defaultSubject string
	privateMode    bool
	logger         *slog.Logger
}

// New creates a Client that delivers events to sink.
func New(sink Sink, opts ...Option) (*Client, error) {
	if sink == nil {
		return nil, ErrNilSink
	}

	o := resolvedOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		sink:           sink,
		defaultSubject: o.defaultSubject,
		privateMode:    o.privateMode,
		logger:         o.logger,
	}, nil
}

// Trace starts a new top-level traced operation. The subject id — the end
// user the emitted events are attributed to — must come from
// params.SubjectID or from WithDefaultSubject; Trace fails without one.
// The trace id doubles as the conversation/session identity and may be
// supplied explicitly to tie several process-local traces together.
func (c *Client) Trace(params TraceParams) (*Trace, error) {
	if params.Name == "" {
		return nil, ErrMissingName
	}

	subject := params.SubjectID
	if subject == "" {
		subject = c.defaultSubject
	}
	if subject == "" {
		return nil, ErrNoSubject
	}

	private := c.privateMode
	if params.Private != nil {
		private = *params.Private
	}

	id := params.TraceID
	if id == "" {
		id = newUnitID()
	}

	return &Trace{
		client:    c,
		id:        id,
		name:      params.Name,
		subjectID: subject,
		private:   private,
		start:     now(),
		input:     params.InputState,
		output:    params.OutputState,
		metadata:  mergeMetadata(nil, params.Metadata),
		props:     mergeProperties(nil, params.Properties),
	}, nil
}

// capture forwards one finished event to the sink. Delivery is
// fire-and-forget: the core never observes the outcome.
func (c *Client) capture(subjectID, event string, properties map[string]any) {
	c.logger.Debug("kiroku: capture", "event", event, "subject_id", subjectID)
	c.sink.Capture(subjectID, event, properties)
}

// newUnitID allocates a globally-unique unit identifier.
func newUnitID() string {
	return uuid.NewString()
}
