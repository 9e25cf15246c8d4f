// Package storage persists local rate limiter window counters.
//
// Two backends implement the Backend interface: MemoryBackend (the
// default; state dies with the process) and SQLiteBackend (window
// counters survive restarts). The SQLite backend opens its database in
// WAL mode with a busy timeout, serializes bucket slices as JSON, and
// checkpoints the WAL on a configurable interval.
package storage
