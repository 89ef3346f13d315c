package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the manifest files to merge from.
	SourcePaths []string
	// DestPath is the destination manifest file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	ContainersMerged int
	RecordsMerged    int
	SourcesProcessed int
}

// Merge combines multiple manifests into one. Later sources replace rows
// for the same container path.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}
	if cfg.DestPath == MemoryPath {
		return nil, fmt.Errorf("destination must be a database file")
	}

	destDB, err := openDB(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer destDB.Close()

	if err := CreateSchema(destDB); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	stats := &MergeStats{}

	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.ContainersMerged += sourceStats.ContainersMerged
		stats.RecordsMerged += sourceStats.RecordsMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies data from a source database to the destination.
func mergeFrom(destDB *sql.DB, sourcePath string) (*MergeStats, error) {
	sourceDB, err := sql.Open(driverName, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer sourceDB.Close()

	stats := &MergeStats{}

	tx, err := destDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	containerCount, err := copyRows(tx, sourceDB, "containers", containerColumns)
	if err != nil {
		return nil, fmt.Errorf("merging containers: %w", err)
	}
	stats.ContainersMerged = containerCount

	recordCount, err := copyRows(tx, sourceDB, "records", recordColumns)
	if err != nil {
		return nil, fmt.Errorf("merging records: %w", err)
	}
	stats.RecordsMerged = recordCount

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return stats, nil
}

var (
	containerColumns = []string{"path", "provenance", "type", "size", "entries", "exported", "skipped", "status", "error"}
	recordColumns    = []string{
		"container", "container_type", "idx", "total", "kind", "has_dimensions", "width", "height",
		"header_json", "entry_offset", "entry_length", "skipped", "skip_reason", "output",
	}
)

// copyRows copies columns of table from sourceDB into tx, replacing rows
// with the same primary key.
func copyRows(tx *sql.Tx, sourceDB *sql.DB, table string, columns []string) (int, error) {
	list := strings.Join(columns, ", ")
	rows, err := sourceDB.Query(fmt.Sprintf("SELECT %s FROM %s", list, table))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", table, list, placeholders))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
