package tracker

import (
	"sort"
	"sync"

	"framemill/internal/modlevel"
)

// Chunk is a ready-to-encode group of frames at one modulo level. Frames are
// ascending by index.
type Chunk struct {
	ID     modlevel.ChunkID
	Frames []int64
}

// Tracker records which frame indices have been produced and which chunks
// have already been handed to the encode pool. All state lives behind a
// single mutex; no other component mutates these sets.
type Tracker struct {
	mu             sync.Mutex
	framesPerChunk int
	available      map[int64]struct{}
	byLevel        map[modlevel.Level][]int64
	claimed        map[modlevel.ChunkID]struct{}
	claimedChunks  map[modlevel.Level]int
}

// New constructs a Tracker for the given chunk size.
func New(framesPerChunk int) *Tracker {
	if framesPerChunk <= 0 {
		framesPerChunk = 1
	}
	t := &Tracker{
		framesPerChunk: framesPerChunk,
		available:      make(map[int64]struct{}),
		byLevel:        make(map[modlevel.Level][]int64),
		claimed:        make(map[modlevel.ChunkID]struct{}),
		claimedChunks:  make(map[modlevel.Level]int),
	}
	return t
}

// MarkAvailable records a produced frame and returns the chunks that became
// complete as a result, already claimed for submission. Marking the same
// index again is a no-op, so a frame can never contribute to a second
// submission of the same chunk.
func (t *Tracker) MarkAvailable(frame int64) []Chunk {
	if frame < 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.available[frame]; ok {
		return nil
	}
	t.available[frame] = struct{}{}

	level := modlevel.Of(frame)
	t.byLevel[level] = insertSorted(t.byLevel[level], frame)

	// Only the arriving frame's level can gain readiness, but scanning all
	// levels keeps multi-level readiness in one call handled uniformly and is
	// cheap at three levels.
	var ready []Chunk
	for _, lvl := range modlevel.Levels() {
		for _, chunk := range t.readyLocked(lvl) {
			t.claimed[chunk.ID] = struct{}{}
			t.claimedChunks[lvl]++
			ready = append(ready, chunk)
		}
	}
	return ready
}

// IsSubmitted reports whether the chunk has already been claimed for
// dispatch.
func (t *Tracker) IsSubmitted(id modlevel.ChunkID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.claimed[id]
	return ok
}

// AvailableCount returns the number of distinct frames marked available.
func (t *Tracker) AvailableCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.available)
}

// SubmittedCount returns the number of chunks claimed so far.
func (t *Tracker) SubmittedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.claimed)
}

// UnclaimedByLevel returns, per level, the count of available frames not
// covered by any claimed chunk. Nonzero values at the end of a run identify
// trailing partial groups that were discarded rather than encoded.
func (t *Tracker) UnclaimedByLevel() map[modlevel.Level]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[modlevel.Level]int, 3)
	for _, lvl := range modlevel.Levels() {
		out[lvl] = len(t.byLevel[lvl]) - t.claimedChunks[lvl]*t.framesPerChunk
	}
	return out
}

// readyLocked computes complete, unclaimed chunks for one level. Callers hold
// the mutex.
//
// The level's sorted available frames are partitioned into consecutive groups
// of framesPerChunk. A group is ready only when its members are exactly the
// expected consecutive entries of the level's frame sequence; the scan stops
// at the first gap, stalling every later group at this level.
func (t *Tracker) readyLocked(level modlevel.Level) []Chunk {
	frames := t.byLevel[level]
	n := t.framesPerChunk

	var ready []Chunk
	for p := 0; p+n <= len(frames); p += n {
		contiguous := true
		for j := 0; j < n; j++ {
			if frames[p+j] != modlevel.NthFrame(level, int64(p+j)) {
				contiguous = false
				break
			}
		}
		if !contiguous {
			break
		}
		id := modlevel.ChunkID{Level: level, Start: frames[p]}
		if _, done := t.claimed[id]; done {
			continue
		}
		group := make([]int64, n)
		copy(group, frames[p:p+n])
		ready = append(ready, Chunk{ID: id, Frames: group})
	}
	return ready
}

func insertSorted(frames []int64, frame int64) []int64 {
	// Frames normally arrive in strictly increasing order.
	if len(frames) == 0 || frame > frames[len(frames)-1] {
		return append(frames, frame)
	}
	i := sort.Search(len(frames), func(i int) bool { return frames[i] >= frame })
	frames = append(frames, 0)
	copy(frames[i+1:], frames[i:])
	frames[i] = frame
	return frames
}
