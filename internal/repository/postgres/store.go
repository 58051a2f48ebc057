package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/dental-api/internal/repository"
)

const stateTableDDL = `CREATE TABLE IF NOT EXISTS state (
	bucket     TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type stateRow struct {
	Bucket  string `db:"bucket"`
	Payload []byte `db:"payload"`
}

type stateRepository struct {
	db *sqlx.DB
}

// NewStateRepository ensures the state table exists and returns a
// repository storing one JSONB row per key.
func NewStateRepository(ctx context.Context, db *sqlx.DB) (repository.KeyValueRepository, error) {
	if _, err := db.ExecContext(ctx, stateTableDDL); err != nil {
		return nil, fmt.Errorf("failed to ensure state table: %w", err)
	}
	return &stateRepository{db: db}, nil
}

func (r *stateRepository) Driver() string { return "postgres" }

func (r *stateRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var row stateRow
	err := r.db.GetContext(ctx, &row, `SELECT bucket, payload FROM state WHERE bucket = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return row.Payload, nil
}

func (r *stateRepository) Save(ctx context.Context, key string, payload []byte) error {
	query := `
		INSERT INTO state (bucket, payload, updated_at)
		VALUES (:bucket, :payload, now())
		ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`
	if _, err := r.db.NamedExecContext(ctx, query, stateRow{Bucket: key, Payload: payload}); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (r *stateRepository) Remove(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM state WHERE bucket = $1`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (r *stateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *stateRepository) Close() error {
	return r.db.Close()
}
