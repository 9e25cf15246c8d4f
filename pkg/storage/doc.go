// Package storage is the application database.
//
// It persists completed request history and tracks the schema version,
// backed by a single SQLite file via mattn/go-sqlite3. The store opens in
// WAL mode with a busy timeout and caches prepared statements for the hot
// insert path.
//
// Migrations are explicit: Open only prepares the connection and the
// migration bookkeeping table, and RunMigrations applies pending versioned
// changes. In production with auto-migration enabled the startup guard
// runs them before the server takes traffic; otherwise the migrate CLI
// command applies them out-of-band.
//
// The store implements the activity tracker's Archiver hook, so every
// request completion is written to the completions table as it happens and
// can be queried later through History.
package storage
