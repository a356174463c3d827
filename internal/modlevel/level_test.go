package modlevel_test

import (
	"testing"

	"framemill/internal/modlevel"
)

func TestOfPartitionIsDisjointAndExhaustive(t *testing.T) {
	counts := map[modlevel.Level]int{}
	for f := int64(0); f < 10000; f++ {
		level := modlevel.Of(f)
		if !level.Valid() {
			t.Fatalf("Of(%d) returned invalid level %d", f, level)
		}
		counts[level]++

		// Exactly one of the three defining predicates holds.
		matches := 0
		if f%16 == 0 {
			matches++
		}
		if f%4 == 0 && f%16 != 0 {
			matches++
		}
		if f%4 != 0 {
			matches++
		}
		if matches != 1 {
			t.Fatalf("frame %d matches %d level predicates, want exactly 1", f, matches)
		}
	}

	total := counts[modlevel.Level16] + counts[modlevel.Level4] + counts[modlevel.Level1]
	if total != 10000 {
		t.Fatalf("level subsets cover %d frames, want 10000", total)
	}
	// Per block of 16: one level-16 frame, three level-4 frames, twelve level-1.
	if counts[modlevel.Level16] != 625 {
		t.Fatalf("level 16 count = %d, want 625", counts[modlevel.Level16])
	}
	if counts[modlevel.Level4] != 1875 {
		t.Fatalf("level 4 count = %d, want 1875", counts[modlevel.Level4])
	}
	if counts[modlevel.Level1] != 7500 {
		t.Fatalf("level 1 count = %d, want 7500", counts[modlevel.Level1])
	}
}

func TestNthFrameMatchesEnumeration(t *testing.T) {
	for _, level := range modlevel.Levels() {
		var i int64
		for f := int64(0); f < 2000; f++ {
			if modlevel.Of(f) != level {
				continue
			}
			if got := modlevel.NthFrame(level, i); got != f {
				t.Fatalf("NthFrame(%v, %d) = %d, want %d", level, i, got, f)
			}
			i++
		}
	}
}

func TestNthFrameKnownValues(t *testing.T) {
	cases := []struct {
		level modlevel.Level
		i     int64
		want  int64
	}{
		{modlevel.Level16, 0, 0},
		{modlevel.Level16, 31, 496},
		{modlevel.Level4, 0, 4},
		{modlevel.Level4, 2, 12},
		{modlevel.Level4, 3, 20},
		{modlevel.Level1, 0, 1},
		{modlevel.Level1, 2, 3},
		{modlevel.Level1, 3, 5},
		{modlevel.Level1, 31, 42},
		{modlevel.Level1, 32, 43},
	}
	for _, tc := range cases {
		if got := modlevel.NthFrame(tc.level, tc.i); got != tc.want {
			t.Errorf("NthFrame(%v, %d) = %d, want %d", tc.level, tc.i, got, tc.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if got := modlevel.Level16.String(); got != "modulo_16" {
		t.Fatalf("Level16.String() = %q", got)
	}
}
