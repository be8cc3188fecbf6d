package kiroku

// mergeProperties combines property maps left to right, later keys winning.
// The result is always a fresh map; nil inputs contribute nothing. Every
// child-creation call runs this to fold the parent's inherited properties
// with the child's own — a snapshot, so later parent updates never
// back-propagate.
func mergeProperties(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// mergeMetadata folds overlay into base key-wise, overlay winning.
// The result is a fresh map.
func mergeMetadata(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
