package kiroku

import (
	"encoding/json"
	"fmt"
)

// ErrorValue records a failure of the traced operation. It has exactly two
// cases: a plain message, emitted as-is, and a structured value, serialized
// to JSON at event assembly. Construct with Message or Structured.
type ErrorValue struct {
	message    string
	structured any
	isMessage  bool
}

// Message records a plain error string. It passes through to the event
// unchanged.
func Message(msg string) *ErrorValue {
	return &ErrorValue{message: msg, isMessage: true}
}

// Structured records an arbitrary error value, serialized to JSON at event
// assembly. A Go error is recorded by its Error() string.
func Structured(v any) *ErrorValue {
	if err, ok := v.(error); ok {
		return &ErrorValue{message: err.Error(), isMessage: true}
	}
	return &ErrorValue{structured: v}
}

// normalize renders the value for the emitted event.
func (e *ErrorValue) normalize() string {
	if e.isMessage {
		return e.message
	}
	b, err := json.Marshal(e.structured)
	if err != nil {
		return fmt.Sprintf("%v", e.structured)
	}
	return string(b)
}
