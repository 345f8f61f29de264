package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the cache schema.
// These run on startup to ensure tables exist. The meta table holds a single
// row describing the snapshot; aims holds the cached records.
const schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    fetched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS aims (
    id INTEGER PRIMARY KEY,
    position INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    target_amount TEXT NOT NULL,
    current_amount TEXT NOT NULL,
    is_completed INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_aims_position ON aims(position);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
