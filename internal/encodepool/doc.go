// Package encodepool runs chunk encodes on a fixed-size worker group fed by
// a bounded task channel.
//
// The pool overlaps CPU-bound encoding with ongoing frame production and
// inference: the pipeline driver submits a chunk the moment it becomes ready
// and keeps producing while workers drain the queue. One chunk's encode
// failure is logged and recorded, never fatal; AwaitAll seals the queue,
// waits for outstanding work, and returns every result. Calling AwaitAll
// again returns the same results without re-running anything.
package encodepool
