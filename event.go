package kiroku

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Event names, one per entity variant.
const (
	EventTrace      = "trace_event"
	EventSpan       = "span_event"
	EventGeneration = "generation_event"
	EventEmbedding  = "embedding_event"
)

// defaultOutputRole tags a bare generation output when it is wrapped as a
// single-element message list.
const defaultOutputRole = "assistant"

// now is a seam for deterministic duration tests.
var now = time.Now

// elapsedSeconds returns the wall-clock duration since start, in seconds,
// unless an explicit override is supplied.
func elapsedSeconds(start time.Time, override *float64) float64 {
	if override != nil {
		return *override
	}
	return now().Sub(start).Seconds()
}

// serialize renders a structured field for the flat event map. Plain
// strings pass through unchanged; everything else becomes JSON.
func serialize(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// wrapOutput normalizes a generation output to a message list: list-shaped
// values pass through, anything else becomes a single message carrying the
// default role.
func wrapOutput(v any) any {
	if v == nil {
		return v
	}
	k := reflect.TypeOf(v).Kind()
	if k == reflect.Slice || k == reflect.Array {
		return v
	}
	return []map[string]any{{"role": defaultOutputRole, "content": v}}
}

func putPayload(p map[string]any, key string, v any) {
	if v != nil {
		p[key] = serialize(v)
	}
}

func putMetadata(p map[string]any, metadata map[string]any) {
	if len(metadata) > 0 {
		p["metadata"] = serialize(metadata)
	}
}

// putError records the normalized error value. A true flag with no value
// emits nothing, and a value with a false flag emits nothing.
func putError(p map[string]any, isError bool, errVal *ErrorValue) {
	if isError && errVal != nil {
		p["error"] = errVal.normalize()
	}
}

// putCustom copies the unit's own properties into the event last, so a
// custom key silently overwrites a reserved key of the same name. Known
// sharp edge, kept because fixing it would change observable output.
func putCustom(p map[string]any, props map[string]string) {
	for k, v := range props {
		p[k] = v
	}
}
