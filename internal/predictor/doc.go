// Package predictor defines the pair inference contract and a subprocess
// adapter for it.
//
// A Predictor evaluates a batch of directed frame pairs in one call; the
// result list is positionally aligned with the input. Results carry fixed
// named fields (label, confidence, five class probabilities) rather than a
// generic map so downstream persistence and reporting stay typed.
//
// The Subprocess implementation drives a long-running inference worker (for
// example a Python process holding a GPU model) over a line-oriented JSON
// protocol on stdin/stdout, amortizing model load across batches. The worker
// is an explicit dependency of the pipeline: there is no process-wide shared
// model instance.
package predictor
