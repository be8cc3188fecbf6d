package kiroku

// Sink receives finished events. Implementations must not block the caller
// for long: Capture is invoked synchronously from End and the core neither
// waits for nor observes delivery. The capture, store, and otelbridge
// packages provide ready-made implementations.
type Sink interface {
	Capture(subjectID, event string, properties map[string]any)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(subjectID, event string, properties map[string]any)

func (f SinkFunc) Capture(subjectID, event string, properties map[string]any) {
	f(subjectID, event, properties)
}

// MultiSink fans each event out to every member sink, in order. Members
// share the property map — they must treat it as read-only.
type MultiSink []Sink

func (m MultiSink) Capture(subjectID, event string, properties map[string]any) {
	for _, s := range m {
		s.Capture(subjectID, event, properties)
	}
}
