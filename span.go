package kiroku

import "time"

// Span is a nested operation within a trace. Its parent is either the trace
// itself or another span; the emitted parent_id falls back to the trace id
// when the parent is the trace. Spans can nest further spans but not
// generations or embeddings.
type Span struct {
	client    *Client
	id        string
	traceID   string
	parentID  string // empty ⇒ the trace is the parent
	name      string
	subjectID string
	start     time.Time
	input     any
	output    any
	metadata  map[string]any
	props     map[string]string
	isError   bool
	errVal    *ErrorValue
}

func newSpan(client *Client, traceID, parentID, subjectID string, inherited map[string]string, params SpanParams) (*Span, error) {
	if params.Name == "" {
		return nil, ErrMissingName
	}
	if subjectID == "" {
		return nil, ErrSubjectContract
	}

	id := params.SpanID
	if id == "" {
		id = newUnitID()
	}

	return &Span{
		client:    client,
		id:        id,
		traceID:   traceID,
		parentID:  parentID,
		name:      params.Name,
		subjectID: subjectID,
		start:     now(),
		input:     params.InputState,
		output:    params.OutputState,
		metadata:  mergeMetadata(nil, params.Metadata),
		props:     mergeProperties(inherited, params.Properties),
	}, nil
}

// ID returns the span's own id.
func (s *Span) ID() string { return s.id }

// TraceID returns the owning trace's id.
func (s *Span) TraceID() string { return s.traceID }

// Update merges params into the span and returns it for chaining. Same
// partial semantics as Trace.Update.
func (s *Span) Update(params SpanParams) *Span {
	if params.Name != "" {
		s.name = params.Name
	}
	if params.InputState != nil {
		s.input = params.InputState
	}
	if params.OutputState != nil {
		s.output = params.OutputState
	}
	if len(params.Metadata) > 0 {
		s.metadata = mergeMetadata(s.metadata, params.Metadata)
	}
	if len(params.Properties) > 0 {
		s.props = mergeProperties(s.props, params.Properties)
	}
	if params.Error != nil {
		s.errVal = params.Error
		if params.IsError == nil {
			s.isError = true
		}
	}
	if params.IsError != nil {
		s.isError = *params.IsError
	}
	return s
}

// End applies final overrides, computes the duration, and emits one
// span_event. Not guarded against repetition: each call emits another event
// with a recomputed duration.
func (s *Span) End(params SpanParams) *Span {
	s.Update(params)
	latency := elapsedSeconds(s.start, params.Latency)
	s.client.capture(s.subjectID, EventSpan, s.eventProperties(latency))
	return s
}

// Span creates a child span. The child's parent_id is this span's own id,
// and its properties snapshot this span's current map merged with its own.
func (s *Span) Span(params SpanParams) (*Span, error) {
	return newSpan(s.client, s.traceID, s.id, s.subjectID, s.props, params)
}

func (s *Span) eventProperties(latency float64) map[string]any {
	parent := s.parentID
	if parent == "" {
		parent = s.traceID
	}
	p := map[string]any{
		"trace_id":  s.traceID,
		"span_id":   s.id,
		"parent_id": parent,
		"name":      s.name,
		"latency":   latency,
		"is_error":  s.isError,
	}
	putPayload(p, "input_state", s.input)
	putPayload(p, "output_state", s.output)
	putMetadata(p, s.metadata)
	putError(p, s.isError, s.errVal)
	putCustom(p, s.props)
	return p
}
