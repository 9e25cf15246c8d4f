package storage

// createMigrationsTable creates the bookkeeping table that records which
// migrations have been applied. It is created unconditionally at open time
// so that the schema version can always be read; domain tables are only
// created by running migrations.
const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL
);
`

const insertMigrationVersion = `
INSERT INTO schema_migrations (version, description, applied_at)
VALUES (?, ?, datetime('now'));
`

const getSchemaVersion = `
SELECT COALESCE(MAX(version), 0) FROM schema_migrations;
`

// migrations is the ordered list of schema changes. Versions are strictly
// increasing and never reused; a change to an applied migration requires a
// new version.
var migrations = []Migration{
	{
		Version:     1,
		Description: "create completions table",
		SQL: `
CREATE TABLE IF NOT EXISTS completions (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    outcome TEXT NOT NULL,

    -- Request metadata captured at begin time
    method TEXT,
    path TEXT,
    client TEXT,

    -- Timestamps
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_completions_user_id ON completions(user_id);
CREATE INDEX IF NOT EXISTS idx_completions_completed_at ON completions(completed_at);
CREATE INDEX IF NOT EXISTS idx_completions_outcome ON completions(outcome);
`,
	},
	{
		Version:     2,
		Description: "index completions by request id",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_completions_request_id ON completions(request_id);
`,
	},
}

const insertCompletion = `
INSERT INTO completions (
    id, request_id, user_id, outcome,
    method, path, client,
    started_at, completed_at, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
