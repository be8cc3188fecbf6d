package kiroku

import "errors"

// Construction contract violations surface synchronously from the factory
// methods. Everything else — a failed traced operation, a sink that drops an
// event — is recorded as data or owned by the sink, and never fails a call.
var (
	// ErrNilSink is returned by New when no sink is provided.
	ErrNilSink = errors.New("kiroku: sink is required")

	// ErrMissingName is returned when a unit is created without a name.
	ErrMissingName = errors.New("kiroku: unit name is required")

	// ErrMissingInput is returned when a generation or embedding is created
	// without an input payload.
	ErrMissingInput = errors.New("kiroku: input payload is required")

	// ErrNoSubject is returned by Client.Trace when neither
	// TraceParams.SubjectID nor WithDefaultSubject supplies a subject id.
	ErrNoSubject = errors.New("kiroku: no subject id: set TraceParams.SubjectID or configure WithDefaultSubject")

	// ErrSubjectContract is returned when a child unit is created from a
	// parent that carries no subject id. The parent always propagates its
	// subject, so seeing this error means a bug in kiroku, not bad input.
	ErrSubjectContract = errors.New("kiroku: internal: parent unit has no subject id")
)
