package kiroku

import "time"

// Trace is a top-level traced operation. It owns the subject id and the
// privacy flag for its whole tree, and is the only unit that generations
// and embeddings can be created from.
//
// A Trace is created via Client.Trace, mutated with Update, and closed with
// End. End is not guarded against repetition: every call assembles and
// emits an independent event with a freshly computed duration. Callers are
// expected to end each unit once; nothing enforces it.
type Trace struct {
	client    *Client
	id        string
	name      string
	subjectID string
	private   bool
	start     time.Time
	input     any
	output    any
	metadata  map[string]any
	props     map[string]string
	isError   bool
	errVal    *ErrorValue
}

// ID returns the trace id, which doubles as the session identity and as the
// trace's own span id in the emitted event.
func (t *Trace) ID() string { return t.id }

// SubjectID returns the end-user identity fixed at creation.
func (t *Trace) SubjectID() string { return t.subjectID }

// Update merges params into the trace and returns it for chaining. Scalars
// overwrite when present; Metadata and Properties merge key-wise with the
// supplied values winning. Identity, subject, and privacy are ignored.
func (t *Trace) Update(params TraceParams) *Trace {
	if params.Name != "" {
		t.name = params.Name
	}
	if params.InputState != nil {
		t.input = params.InputState
	}
	if params.OutputState != nil {
		t.output = params.OutputState
	}
	if len(params.Metadata) > 0 {
		t.metadata = mergeMetadata(t.metadata, params.Metadata)
	}
	if len(params.Properties) > 0 {
		t.props = mergeProperties(t.props, params.Properties)
	}
	t.applyError(params.IsError, params.Error)
	return t
}

// End applies any final overrides, computes the duration (params.Latency
// wins over measured wall-clock time), and emits one trace_event. Returns
// the trace for chaining.
func (t *Trace) End(params TraceParams) *Trace {
	t.Update(params)
	latency := elapsedSeconds(t.start, params.Latency)
	t.client.capture(t.subjectID, EventTrace, t.eventProperties(latency))
	return t
}

// Span creates a nested operation under this trace. The child snapshots the
// trace's current properties merged with its own and inherits the subject.
func (t *Trace) Span(params SpanParams) (*Span, error) {
	return newSpan(t.client, t.id, "", t.subjectID, t.props, params)
}

// Generation creates a model-call record under this trace. Generations
// cannot nest further units; a follow-up operation after a model call
// anchors to the trace directly.
func (t *Trace) Generation(params GenerationParams) (*Generation, error) {
	return newGeneration(t.client, t.id, t.subjectID, t.props, params)
}

// Embedding creates an embedding-call record under this trace.
func (t *Trace) Embedding(params EmbeddingParams) (*Embedding, error) {
	return newEmbedding(t.client, t.id, t.subjectID, t.props, params)
}

func (t *Trace) applyError(isError *bool, errVal *ErrorValue) {
	if errVal != nil {
		t.errVal = errVal
		if isError == nil {
			t.isError = true
		}
	}
	if isError != nil {
		t.isError = *isError
	}
}

func (t *Trace) eventProperties(latency float64) map[string]any {
	p := map[string]any{
		"trace_id": t.id,
		"span_id":  t.id,
		"name":     t.name,
		"latency":  latency,
		"is_error": t.isError,
	}
	// Privacy suppression applies only to the trace's own event: the
	// state keys are omitted entirely, never emitted as placeholders.
	if !t.private {
		putPayload(p, "input_state", t.input)
		putPayload(p, "output_state", t.output)
	}
	putMetadata(p, t.metadata)
	putError(p, t.isError, t.errVal)
	putCustom(p, t.props)
	return p
}
