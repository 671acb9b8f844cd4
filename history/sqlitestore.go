package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver: no cgo toolchain needed on the collection host or in build containers
)

// SQLiteStore is the default HistoryStore backend: a single file, no
// server to run, safe for one operator's laptop or a CI job.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultSQLitePath returns ~/.hostsurvey/history.db, falling back to a
// relative path if the home directory cannot be resolved.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hostsurvey-history.db"
	}
	return filepath.Join(home, ".hostsurvey", "history.db")
}

// OpenSQLite opens (creating if absent) the history database at path,
// or at DefaultSQLitePath if path is empty.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, rec HistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (host, collection_id, collected_at, cluster_count, overall_confidence, warning_count, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host, collection_id) DO UPDATE SET
			collected_at = excluded.collected_at,
			cluster_count = excluded.cluster_count,
			overall_confidence = excluded.overall_confidence,
			warning_count = excluded.warning_count,
			schema_version = excluded.schema_version
	`, rec.Host, rec.CollectionID, rec.CollectedAt.UTC().Format(time.RFC3339), rec.ClusterCount,
		rec.OverallConfidence, rec.WarningCount, rec.SchemaVersion)
	if err != nil {
		return fmt.Errorf("history: recording %s/%s: %w", rec.Host, rec.CollectionID, err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, host string, limit int) ([]HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT host, collection_id, collected_at, cluster_count, overall_confidence, warning_count, schema_version
		FROM history WHERE host = ? ORDER BY collected_at DESC LIMIT ?
	`, host, limit)
	if err != nil {
		return nil, fmt.Errorf("history: querying %s: %w", host, err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		var collectedAt string
		if err := rows.Scan(&rec.Host, &rec.CollectionID, &collectedAt, &rec.ClusterCount,
			&rec.OverallConfidence, &rec.WarningCount, &rec.SchemaVersion); err != nil {
			return nil, fmt.Errorf("history: scanning row: %w", err)
		}
		rec.CollectedAt, err = time.Parse(time.RFC3339, collectedAt)
		if err != nil {
			return nil, fmt.Errorf("history: parsing collected_at %q: %w", collectedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
