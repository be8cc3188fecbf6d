package kiroku

import "log/slog"

// Option configures a Client.
type Option func(*resolvedOptions)

// resolvedOptions holds all settings after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	defaultSubject string
	privateMode    bool
	logger         *slog.Logger
}

// WithDefaultSubject sets the subject id used by traces that do not supply
// one. Without it, every Trace call must carry TraceParams.SubjectID.
func WithDefaultSubject(subjectID string) Option {
	return func(o *resolvedOptions) { o.defaultSubject = subjectID }
}

// WithPrivateMode sets the process-wide default for the trace privacy flag.
// When a trace is private its own input/output state is omitted from its
// emitted event. Individual traces override this via TraceParams.Private.
func WithPrivateMode(private bool) Option {
	return func(o *resolvedOptions) { o.privateMode = private }
}

// WithLogger sets the structured logger for the Client.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}
