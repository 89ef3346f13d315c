package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oiutils/threearc/pkg/types"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// openDB opens path with a single connection. Containers are extracted
// concurrently and SQLite allows one writer at a time.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// recordHeader is the parsed image header kept alongside a record.
type recordHeader struct {
	PNG  *types.PNGHeader  `json:"png,omitempty"`
	JFIF *types.JFIFHeader `json:"jfif,omitempty"`
}

// AddContainer stores a container run.
func (s *SQLiteStore) AddContainer(run *types.ContainerRun) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO containers (path, provenance, type, size, entries, exported, skipped, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.Path,
		run.Provenance,
		run.Type,
		run.Size,
		run.Entries,
		run.Exported,
		run.Skipped,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting container: %w", err)
	}
	return nil
}

// AddRecord stores an entry record.
func (s *SQLiteStore) AddRecord(r *types.Record) error {
	var headerJSON *string
	if r.PNG != nil || r.JFIF != nil {
		data, err := json.Marshal(recordHeader{PNG: r.PNG, JFIF: r.JFIF})
		if err != nil {
			return fmt.Errorf("marshaling header: %w", err)
		}
		text := string(data)
		headerJSON = &text
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO records
		(container, container_type, idx, total, kind, has_dimensions, width, height,
		 header_json, entry_offset, entry_length, skipped, skip_reason, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.Container,
		r.ContainerType,
		r.Index,
		r.Total,
		r.Kind.String(),
		r.HasDimensions,
		r.Width,
		r.Height,
		headerJSON,
		r.Offset,
		r.Length,
		r.Skipped,
		r.SkipReason,
		r.Output,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// GetContainers retrieves all container runs.
func (s *SQLiteStore) GetContainers() ([]*types.ContainerRun, error) {
	rows, err := s.db.Query(`
		SELECT path, provenance, type, size, entries, exported, skipped, status, error
		FROM containers
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("querying containers: %w", err)
	}
	defer rows.Close()

	var runs []*types.ContainerRun
	for rows.Next() {
		var run types.ContainerRun
		var provenance, errText sql.NullString
		var status string

		err := rows.Scan(
			&run.Path,
			&provenance,
			&run.Type,
			&run.Size,
			&run.Entries,
			&run.Exported,
			&run.Skipped,
			&status,
			&errText,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning container: %w", err)
		}
		run.Provenance = provenance.String
		run.Status = types.ContainerStatus(status)
		run.Error = errText.String

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating containers: %w", err)
	}

	return runs, nil
}

// GetRecords retrieves entry records.
func (s *SQLiteStore) GetRecords(path string) ([]*types.Record, error) {
	query := `
		SELECT container, container_type, idx, total, kind, has_dimensions, width, height,
		       header_json, entry_offset, entry_length, skipped, skip_reason, output
		FROM records
	`
	var args []any
	if path != "" {
		query += " WHERE container = ?"
		args = append(args, path)
	}
	query += " ORDER BY container, idx"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []*types.Record
	for rows.Next() {
		var r types.Record
		var kind string
		var width, height sql.NullInt64
		var headerJSON, skipReason, output sql.NullString

		err := rows.Scan(
			&r.Container,
			&r.ContainerType,
			&r.Index,
			&r.Total,
			&kind,
			&r.HasDimensions,
			&width,
			&height,
			&headerJSON,
			&r.Offset,
			&r.Length,
			&r.Skipped,
			&skipReason,
			&output,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		if r.Kind, err = types.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("parsing kind: %w", err)
		}
		r.Width = uint32(width.Int64)
		r.Height = uint32(height.Int64)
		r.SkipReason = skipReason.String
		r.Output = output.String

		if headerJSON.Valid && headerJSON.String != "" {
			var h recordHeader
			if err := json.Unmarshal([]byte(headerJSON.String), &h); err != nil {
				return nil, fmt.Errorf("unmarshaling header: %w", err)
			}
			r.PNG, r.JFIF = h.PNG, h.JFIF
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

// ContainerExists checks if a container run was stored.
func (s *SQLiteStore) ContainerExists(path string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM containers WHERE path = ?", path).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking container: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
