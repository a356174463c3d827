// Package services defines the shared error taxonomy for pipeline stages.
//
// Stage code wraps failures with a sentinel marker (external tool, validation,
// configuration, transient, fatal) plus stage and operation context so callers
// can classify errors with errors.Is without parsing message text. The CLI
// uses the classification to decide exit behavior, and the pipeline driver
// uses it to separate fail-fast errors from per-chunk recoverable ones.
package services
