package modlevel

import "fmt"

// Level is the modulo classification of a frame index. The numeric value is
// the sampling stride the level is named after.
type Level int

const (
	Level16 Level = 16
	Level4  Level = 4
	Level1  Level = 1
)

// Levels returns all levels ordered coarsest first. Coarse chunks complete
// earliest and give downstream consumers a usable preview density fastest.
func Levels() [3]Level {
	return [3]Level{Level16, Level4, Level1}
}

// Of classifies a frame index into exactly one level.
//
// The three cases are disjoint and exhaustive by construction: f%16 == 0
// implies f%4 == 0, so checking coarsest first leaves "multiple of 4 but not
// 16" and "not a multiple of 4" as the only remaining classes. Changing any
// stride requires re-deriving that disjointness.
func Of(frame int64) Level {
	switch {
	case frame%16 == 0:
		return Level16
	case frame%4 == 0:
		return Level4
	default:
		return Level1
	}
}

// NthFrame returns the i-th frame index (0-based) of the level's full
// sequence. Level 16 is 0,16,32,...; level 4 repeats {4,8,12} in every block of
// 16; level 1 repeats {1,2,3} in every block of 4.
func NthFrame(level Level, i int64) int64 {
	switch level {
	case Level16:
		return 16 * i
	case Level4:
		return 16*(i/3) + 4*(i%3+1)
	case Level1:
		return 4*(i/3) + i%3 + 1
	default:
		panic(fmt.Sprintf("modlevel: unknown level %d", level))
	}
}

// Valid reports whether the level is one of the three defined strides.
func (l Level) Valid() bool {
	return l == Level16 || l == Level4 || l == Level1
}

func (l Level) String() string {
	return fmt.Sprintf("modulo_%d", int(l))
}
