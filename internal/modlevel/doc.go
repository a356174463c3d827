// Package modlevel defines the modulo-level frame classification that chunk
// scheduling is built on.
//
// Every frame index belongs to exactly one of three levels: 16 (multiples of
// 16), 4 (multiples of 4 that are not multiples of 16), and 1 (everything
// else). The three classes are disjoint and cover all indices, so a frame is
// claimed by exactly one chunk. Level 16 is the coarsest preview density and
// the first to become encodeable; level 1 fills in full density.
//
// The package also owns chunk identity and the storage key scheme used to
// address encoded chunk artifacts. The key format is load-bearing: existing
// stored data is addressed with it, so it must not change shape.
package modlevel
