package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	if err := createContainersTable(db); err != nil {
		return fmt.Errorf("creating containers table: %w", err)
	}

	if err := createRecordsTable(db); err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	return nil
}

func createContainersTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS containers (
			path TEXT PRIMARY KEY NOT NULL,
			provenance TEXT,
			type INTEGER NOT NULL,
			size INTEGER NOT NULL,
			entries INTEGER NOT NULL,
			exported INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT
		)
	`)
	return err
}

func createRecordsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			container TEXT NOT NULL,
			container_type INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			total INTEGER NOT NULL,
			kind TEXT NOT NULL,
			has_dimensions INTEGER NOT NULL,
			width INTEGER,
			height INTEGER,
			header_json TEXT,
			entry_offset INTEGER NOT NULL,
			entry_length INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			skip_reason TEXT,
			output TEXT,
			PRIMARY KEY (container, idx)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind)
	`)
	return err
}
