package storage

import (
	"context"
	"database/sql"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.1.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
	{
		Version: "1.1.0",
		Up:      migrationV11Up,
		Down:    migrationV11Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- One row per loaded SOFT file
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    accession TEXT NOT NULL UNIQUE,
    source TEXT NOT NULL,
    load_id TEXT NOT NULL,
    full_variant BOOLEAN DEFAULT 0,
    entity_count INTEGER DEFAULT 0,
    warning_count INTEGER DEFAULT 0,
    loaded_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Entities in document order
CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    position INTEGER NOT NULL,
    has_data_table BOOLEAN DEFAULT 0,
    table_columns TEXT,
    row_count INTEGER DEFAULT 0,
    table_error TEXT,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
    UNIQUE(document_id, kind, name)
);

CREATE INDEX IF NOT EXISTS idx_entities_document ON entities(document_id);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);

-- Attribute slots; list values are newline-joined
CREATE TABLE IF NOT EXISTS attributes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    slot TEXT NOT NULL,
    value_count INTEGER NOT NULL,
    value TEXT NOT NULL,
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE,
    UNIQUE(entity_id, name)
);

CREATE INDEX IF NOT EXISTS idx_attributes_entity ON attributes(entity_id);
CREATE INDEX IF NOT EXISTS idx_attributes_name ON attributes(name);

-- # header lines
CREATE TABLE IF NOT EXISTS column_descriptions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    column_name TEXT NOT NULL,
    description TEXT NOT NULL,
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE,
    UNIQUE(entity_id, column_name)
);

CREATE INDEX IF NOT EXISTS idx_column_descriptions_entity ON column_descriptions(entity_id);

-- Data table rows; cells are a JSON array
CREATE TABLE IF NOT EXISTS table_rows (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id INTEGER NOT NULL,
    row_index INTEGER NOT NULL,
    cells TEXT NOT NULL,
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE,
    UNIQUE(entity_id, row_index)
);

-- Schema warnings collected while parsing
CREATE TABLE IF NOT EXISTS warnings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL,
    entity_kind TEXT NOT NULL,
    entity_name TEXT NOT NULL,
    attribute TEXT NOT NULL,
    code TEXT NOT NULL,
    message TEXT NOT NULL,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_warnings_document ON warnings(document_id);
CREATE INDEX IF NOT EXISTS idx_warnings_code ON warnings(code);
`

const migrationV1Down = `
DROP TABLE IF EXISTS warnings;
DROP TABLE IF EXISTS table_rows;
DROP TABLE IF EXISTS column_descriptions;
DROP TABLE IF EXISTS attributes;
DROP TABLE IF EXISTS entities;
DROP TABLE IF EXISTS documents;
DROP TABLE IF EXISTS schema_version;
`

const migrationV11Up = `
-- Full-text search on attribute names and values
CREATE VIRTUAL TABLE IF NOT EXISTS attributes_fts USING fts5(
    name, value,
    content='attributes',
    content_rowid='id'
);

INSERT INTO attributes_fts(attributes_fts) VALUES ('rebuild');

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS attributes_ai AFTER INSERT ON attributes BEGIN
    INSERT INTO attributes_fts(rowid, name, value)
    VALUES (new.id, new.name, new.value);
END;

CREATE TRIGGER IF NOT EXISTS attributes_ad AFTER DELETE ON attributes BEGIN
    INSERT INTO attributes_fts(attributes_fts, rowid, name, value)
    VALUES ('delete', old.id, old.name, old.value);
END;

CREATE TRIGGER IF NOT EXISTS attributes_au AFTER UPDATE ON attributes BEGIN
    INSERT INTO attributes_fts(attributes_fts, rowid, name, value)
    VALUES ('delete', old.id, old.name, old.value);
    INSERT INTO attributes_fts(rowid, name, value)
    VALUES (new.id, new.name, new.value);
END;
`

const migrationV11Down = `
DROP TRIGGER IF EXISTS attributes_au;
DROP TRIGGER IF EXISTS attributes_ad;
DROP TRIGGER IF EXISTS attributes_ai;
DROP TABLE IF EXISTS attributes_fts;
`

// currentVersion reads the most recently applied schema version, or 0.0.0
func currentVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return semver.MustParse("0.0.0"), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to check schema_version table")
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read schema_version")
	}
	defer func() { _ = rows.Close() }()

	// applied_at has second resolution, so compare versions instead of ordering by time
	current := semver.MustParse("0.0.0")
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid schema version %s", s)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	return current, rows.Err()
}

// SchemaVersion returns the applied schema version
func SchemaVersion(ctx context.Context, db *sql.DB) (string, error) {
	v, err := currentVersion(ctx, db)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return errors.Wrapf(err, "invalid migration version %s", migration.Version)
		}

		if !current.LessThan(migrationVersion) {
			continue // Already applied
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", migration.Version)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return errors.Wrapf(err, "failed to record migration %s", migration.Version)
		}

		current = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}
	if current.Equal(semver.MustParse("0.0.0")) {
		return errors.New("no migrations to rollback")
	}

	var migration *Migration
	for i := range AllMigrations {
		if semver.MustParse(AllMigrations[i].Version).Equal(current) {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return errors.Newf("migration %s not found", current)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return errors.Wrapf(err, "failed to rollback migration %s", migration.Version)
	}

	// The first migration drops schema_version itself
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", migration.Version); err != nil && migration.Version != AllMigrations[0].Version {
		return errors.Wrapf(err, "failed to remove migration record %s", migration.Version)
	}

	return nil
}
