// Package journal persists pipeline runs in SQLite so the report command can
// inspect them after the process exits.
//
// The Store manages the database connection, schema initialization, and the
// per-run record tables: one row per run, one per inference pair, one per
// encoded chunk. The database is an operational record rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// delete the database to adopt the new schema.
package journal
