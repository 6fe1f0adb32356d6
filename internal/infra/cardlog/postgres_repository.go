package cardlog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/undownding/city-card/internal/domain/card"
)

// PostgresRepository implements card.GenerationLog using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository and ensures its table.
func NewPostgresRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresRepository, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS card_generations (
			id UUID PRIMARY KEY,
			city TEXT NOT NULL,
			slug TEXT NOT NULL,
			object_key TEXT NOT NULL,
			prompt_version TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL,
			byte_size BIGINT NOT NULL,
			duration_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{pool: pool}, nil
}

// Record inserts one completed generation.
func (r *PostgresRepository) Record(ctx context.Context, rec card.GenerationRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO card_generations (id, city, slug, object_key, prompt_version, mime_type, byte_size, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.City, rec.Slug, rec.ObjectKey, rec.PromptVersion, rec.MimeType, rec.ByteSize, rec.Duration.Milliseconds(), rec.CreatedAt)
	return err
}

// Recent lists the latest generations, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]card.GenerationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, city, slug, object_key, prompt_version, mime_type, byte_size, duration_ms, created_at
		FROM card_generations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []card.GenerationRecord
	for rows.Next() {
		var (
			rec        card.GenerationRecord
			durationMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.City, &rec.Slug, &rec.ObjectKey, &rec.PromptVersion, &rec.MimeType, &rec.ByteSize, &durationMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ card.GenerationLog = (*PostgresRepository)(nil)
