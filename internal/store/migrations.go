package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "items: learning items, tags and the review log",
		SQL: `
CREATE TABLE items (
    id             TEXT PRIMARY KEY,
    extract_id     TEXT,
    question       TEXT NOT NULL,
    answer         TEXT NOT NULL DEFAULT '',
    category       TEXT NOT NULL DEFAULT '',
    priority       INTEGER NOT NULL DEFAULT 50 CHECK (priority BETWEEN 1 AND 100),

    -- Memory model: all NULL until the first review
    stability      REAL,
    difficulty     REAL,
    reps           INTEGER,

    interval_days  INTEGER NOT NULL DEFAULT 0,
    easiness       REAL NOT NULL DEFAULT 2.5,
    last_reviewed  INTEGER,
    next_review    INTEGER,
    last_accessed  INTEGER,

    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX idx_items_next_review ON items(next_review);
CREATE INDEX idx_items_priority    ON items(priority DESC);
CREATE INDEX idx_items_category    ON items(category);

CREATE TABLE item_tags (
    item_id  TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    tag      TEXT NOT NULL,
    PRIMARY KEY (item_id, tag)
);

CREATE TABLE review_log (
    id                  INTEGER PRIMARY KEY,
    item_id             TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    review_date         INTEGER NOT NULL,
    grade               INTEGER NOT NULL CHECK (grade BETWEEN 1 AND 4),
    response_time       INTEGER,
    scheduled_interval  INTEGER NOT NULL DEFAULT 0,
    actual_interval     INTEGER
);

CREATE INDEX idx_review_log_item ON review_log(item_id, review_date);
CREATE INDEX idx_review_log_date ON review_log(review_date);
`,
	},
	{
		Version:     2,
		Description: "documents: reading queue, extracts and highlights",
		SQL: `
CREATE TABLE documents (
    id                 TEXT PRIMARY KEY,
    title              TEXT NOT NULL,
    source             TEXT NOT NULL DEFAULT '',
    category           TEXT NOT NULL DEFAULT '',
    priority           INTEGER NOT NULL DEFAULT 50 CHECK (priority BETWEEN 1 AND 100),

    stability          REAL,
    difficulty         REAL,
    reps               INTEGER,

    reading_count      INTEGER NOT NULL DEFAULT 0,
    interval_days      INTEGER NOT NULL DEFAULT 0,
    easiness           REAL NOT NULL DEFAULT 2.5,
    last_reading_date  INTEGER,
    next_reading_date  INTEGER,
    last_accessed      INTEGER,
    imported_at        INTEGER NOT NULL
);

CREATE INDEX idx_documents_next_reading ON documents(next_reading_date);
CREATE INDEX idx_documents_priority     ON documents(priority DESC);

CREATE TABLE document_tags (
    document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    tag          TEXT NOT NULL,
    PRIMARY KEY (document_id, tag)
);

CREATE TABLE extracts (
    id           TEXT PRIMARY KEY,
    document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    content      TEXT NOT NULL,
    priority     INTEGER NOT NULL DEFAULT 50 CHECK (priority BETWEEN 1 AND 100),
    created_at   INTEGER NOT NULL
);

CREATE INDEX idx_extracts_document ON extracts(document_id, created_at);

CREATE TABLE highlights (
    id           INTEGER PRIMARY KEY,
    document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    content      TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL
);

CREATE INDEX idx_highlights_document ON highlights(document_id, created_at);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := db.Get(&count, "SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_versions")
	return version, err
}
