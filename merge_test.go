package kiroku

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergePropertiesLastWriteWins(t *testing.T) {
	got := mergeProperties(
		map[string]string{"a": "1", "x": "p"},
		nil,
		map[string]string{"b": "2", "x": "c"},
	)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "x": "c"}, got)
}

func TestMergePropertiesReturnsFreshMap(t *testing.T) {
	src := map[string]string{"a": "1"}
	got := mergeProperties(src)
	got["a"] = "mutated"
	assert.Equal(t, "1", src["a"], "inputs must not be aliased")
}

func TestMergeMetadataOverlayWins(t *testing.T) {
	base := map[string]any{"keep": 1, "replace": "old"}
	got := mergeMetadata(base, map[string]any{"replace": "new"})
	assert.Equal(t, map[string]any{"keep": 1, "replace": "new"}, got)
	assert.Equal(t, "old", base["replace"], "base must not be mutated")
}
