// Package tracker owns frame availability and chunk submission state.
//
// The Tracker is the single writer of the available-frame set and the
// submitted-chunk set; every mutation happens under one mutex. MarkAvailable
// records a produced frame, detects chunks that just became complete at the
// frame's modulo level, claims them atomically, and hands them back for
// dispatch, so the same chunk can never be submitted twice even when
// readiness is probed concurrently.
//
// Readiness is strict: a chunk at a level is complete only when all N
// consecutive members of that level's frame sequence are available, counted
// from the start of the sequence. A missing frame stalls every later chunk at
// that level; trailing partial groups are never ready.
package tracker
