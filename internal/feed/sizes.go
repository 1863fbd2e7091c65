package feed

import "strings"

// IsHalfSize reports whether a size label is a half size such as "7.5".
func IsHalfSize(label string) bool {
	return strings.HasSuffix(label, ".5")
}

// TrimSizes reduces sizes to at most limit entries. Half sizes are removed
// first, left to right, until the limit is met; anything still over the limit
// is cut from the end. The input slice is not modified.
func TrimSizes(sizes []string, limit int) []string {
	out := make([]string, len(sizes))
	copy(out, sizes)

	if limit < 0 {
		limit = 0
	}
	surplus := len(out) - limit

	for i := 0; surplus > 0 && i < len(out); {
		if IsHalfSize(out[i]) {
			out = append(out[:i], out[i+1:]...)
			surplus--
			continue
		}
		i++
	}

	if surplus > 0 {
		out = out[:len(out)-surplus]
	}
	return out
}
