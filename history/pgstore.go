package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the shared-ledger HistoryStore backend for teams running
// many operators' audits against one PostgreSQL database.
type PgStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn with pgxpool's default settings and
// ensures the history table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connecting to %s: %w", dsn, err)
	}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

func (s *PgStore) Record(ctx context.Context, rec HistoryRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO history (host, collection_id, collected_at, cluster_count, overall_confidence, warning_count, schema_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (host, collection_id) DO UPDATE SET
			collected_at = excluded.collected_at,
			cluster_count = excluded.cluster_count,
			overall_confidence = excluded.overall_confidence,
			warning_count = excluded.warning_count,
			schema_version = excluded.schema_version
	`, rec.Host, rec.CollectionID, rec.CollectedAt, rec.ClusterCount, rec.OverallConfidence, rec.WarningCount, rec.SchemaVersion)
	if err != nil {
		return fmt.Errorf("history: recording %s/%s: %w", rec.Host, rec.CollectionID, err)
	}
	return nil
}

func (s *PgStore) Recent(ctx context.Context, host string, limit int) ([]HistoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT host, collection_id, collected_at, cluster_count, overall_confidence, warning_count, schema_version
		FROM history WHERE host = $1 ORDER BY collected_at DESC LIMIT $2
	`, host, limit)
	if err != nil {
		return nil, fmt.Errorf("history: querying %s: %w", host, err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		if err := rows.Scan(&rec.Host, &rec.CollectionID, &rec.CollectedAt, &rec.ClusterCount,
			&rec.OverallConfidence, &rec.WarningCount, &rec.SchemaVersion); err != nil {
			return nil, fmt.Errorf("history: scanning row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}
