// Package pipeline drives one run end to end: it pulls frames from the
// producer, marks each persisted frame available for chunking, batches
// consecutive pairs for inference, and dispatches completed chunks to the
// encode pool, all overlapped so no stage waits for another to finish its
// whole input.
//
// The driver owns the run state machine (Idle, Producing, Draining, Done)
// and assembles the final Summary from the metrics collector and pool stats.
// Producer and inference failures abort the run; individual chunk encode
// failures are recorded and the run continues.
package pipeline
