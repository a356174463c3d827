package textutil

import "strings"

// Tail trims s and returns at most limit trailing bytes, prefixing truncated
// output with an ellipsis. Subprocess stderr is surfaced through this so
// error messages stay bounded.
func Tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
