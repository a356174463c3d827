// Package textutil provides small text helpers: storage-key token
// sanitization and log-friendly truncation of subprocess output.
package textutil
