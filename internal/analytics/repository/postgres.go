package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Insert(ctx context.Context, entry model.SearchLogEntry) error {
	query := `
        INSERT INTO search_logs (id, store_id, query, mode, result_count, created_at)
        VALUES (:id, :store_id, :query, :mode, :result_count, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, entry)
	return err
}

// ListSince returns a store's searches from since onwards in the order they were made.
func (r *PGRepository) ListSince(ctx context.Context, storeID string, since time.Time) ([]model.SearchLogEntry, error) {
	var entries []model.SearchLogEntry
	query := `
        SELECT id, store_id, query, mode, result_count, created_at
        FROM search_logs
        WHERE store_id = $1 AND created_at >= $2
        ORDER BY created_at ASC, id ASC
    `
	err := r.DB.SelectContext(ctx, &entries, query, storeID, since)
	return entries, err
}
