package kiroku

// Params structs serve three roles per entity: creation input, partial
// update, and final overrides at End. Partial semantics throughout: zero
// values are no-ops, so a field left unset never clobbers existing state.
// Strings overwrite when non-empty, payloads when non-nil, and Metadata and
// Properties merge key-wise with the supplied values winning.
//
// Properties are inherited: a child's map at creation is the merge of every
// ancestor's map (as of the child's creation) with the child's own, own
// values winning. Custom property keys are copied into the emitted event
// last and silently overwrite reserved keys of the same name.

// TraceParams describes a top-level traced operation.
type TraceParams struct {
	// TraceID is the session/conversation identity. Allocated when empty.
	// Ignored by Update and End.
	TraceID string

	// Name is required at creation.
	Name string

	// SubjectID attributes the trace's events to an end user. Falls back to
	// the client default. Immutable after creation.
	SubjectID string

	// Private omits the trace's own input/output state from its emitted
	// event. Falls back to the client default. Only honored at creation.
	Private *bool

	InputState  any
	OutputState any
	Metadata    map[string]any
	Properties  map[string]string

	// Latency overrides the measured wall-clock duration, in seconds.
	// Only honored by End.
	Latency *float64

	// IsError flags the traced operation as failed. Error carries the
	// failure value; setting Error alone implies IsError true.
	IsError *bool
	Error   *ErrorValue
}

// SpanParams describes a nested operation within a trace.
type SpanParams struct {
	// SpanID is allocated when empty. Ignored by Update and End.
	SpanID string

	// Name is required at creation.
	Name string

	InputState  any
	OutputState any
	Metadata    map[string]any
	Properties  map[string]string

	// Latency overrides the measured wall-clock duration, in seconds.
	// Only honored by End.
	Latency *float64

	IsError *bool
	Error   *ErrorValue
}

// GenerationParams describes one model invocation. Generations are leaves:
// no further unit can be nested under one.
type GenerationParams struct {
	// Name is required at creation.
	Name string

	Model    string
	Provider string

	// Input is the request payload, required at creation and treated as
	// opaque data.
	Input any

	// Output is the completion payload. A non-list value is wrapped as a
	// single-element assistant message before serialization.
	Output any

	InputTokens  *int
	OutputTokens *int
	HTTPStatus   int
	BaseURL      string
	Metadata     map[string]any
	Properties   map[string]string

	// Latency overrides the measured wall-clock duration, in seconds.
	// Only honored by End.
	Latency *float64

	IsError *bool
	Error   *ErrorValue
}

// EmbeddingParams describes one embedding invocation: same shape as a
// generation minus the output payload and output token count.
type EmbeddingParams struct {
	// Name is required at creation.
	Name string

	Model    string
	Provider string

	// Input is the text, or list of texts, being embedded. Required at
	// creation.
	Input any

	InputTokens *int
	HTTPStatus  int
	BaseURL     string
	Metadata    map[string]any
	Properties  map[string]string

	// Latency overrides the measured wall-clock duration, in seconds.
	// Only honored by End.
	Latency *float64

	IsError *bool
	Error   *ErrorValue
}
