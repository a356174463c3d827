package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":  "acme_corp",
		"vid42":      "vid42",
		"A/B:C":      "a_b_c",
		"  spaced  ": "spaced",
		"":           "unknown",
		"under_dash": "under_dash",
	}
	for in, want := range cases {
		if got := SanitizeToken(in); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTail(t *testing.T) {
	if got := Tail("  short  ", 100); got != "short" {
		t.Fatalf("Tail(short) = %q", got)
	}
	long := strings.Repeat("x", 50) + "tail-end"
	if got := Tail(long, 8); got != "...tail-end" {
		t.Fatalf("Tail(long) = %q", got)
	}
}
