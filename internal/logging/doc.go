// Package logging assembles structured slog loggers and formatting helpers
// used across framemill components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so pipeline code tags log lines
// with component names, chunk identifiers, and frame indices in one shape.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
