package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-aisle-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/ledger"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertMovementQuery = `
    INSERT INTO stock_movements (
        id, store_id, batch_id, product_id, movement_type,
        quantity_change, quantity_before, quantity_after, reason, reference, created_at
    )
    VALUES (
        :id, :store_id, :batch_id, :product_id, :movement_type,
        :quantity_change, :quantity_before, :quantity_after, :reason, :reference, :created_at
    )
`

// ListByStore returns every batch of the store, depleted ones included, in admission order.
func (r *PGRepository) ListByStore(ctx context.Context, storeID string) ([]model.StockBatch, error) {
	var batches []model.StockBatch
	query := `
        SELECT b.id, b.store_id, b.product_id, b.aisle_id, b.quantity, b.expiry_date, b.batch_number, b.stocked_on,
               p.name AS product_name, p.sku AS product_sku, a.number AS aisle_number, a.name AS aisle_name
        FROM stock_batches b
        JOIN products p ON p.id = b.product_id
        JOIN aisles a ON a.id = b.aisle_id
        WHERE b.store_id = $1
        ORDER BY b.seq ASC
    `
	err := r.DB.SelectContext(ctx, &batches, query, storeID)
	return batches, err
}

func (r *PGRepository) Insert(ctx context.Context, change ledger.Change) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertBatchQuery := `
        INSERT INTO stock_batches (id, store_id, product_id, aisle_id, quantity, expiry_date, batch_number, stocked_on)
        VALUES (:id, :store_id, :product_id, :aisle_id, :quantity, :expiry_date, :batch_number, :stocked_on)
    `
	if _, err := tx.NamedExecContext(ctx, insertBatchQuery, change.Batch); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertMovementQuery, change.Movement); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}

	return tx.Commit()
}

// Apply writes new quantities and their movements in one transaction.
func (r *PGRepository) Apply(ctx context.Context, changes []ledger.Change) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range changes {
		res, err := tx.ExecContext(ctx,
			`UPDATE stock_batches SET quantity = $1, updated_at = NOW() WHERE id = $2 AND quantity = $3`,
			c.Batch.Quantity, c.Batch.ID, c.Movement.Before,
		)
		if err != nil {
			return fmt.Errorf("failed to update batch %s: %w", c.Batch.ID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			// Another replica changed the row since this ledger loaded it
			return fmt.Errorf("batch %s: %w", c.Batch.ID, ledger.ErrConflict)
		}

		if _, err := tx.NamedExecContext(ctx, insertMovementQuery, c.Movement); err != nil {
			return fmt.Errorf("failed to log movement: %w", err)
		}
	}

	return tx.Commit()
}

// Version counts the store's movements. Every batch write logs a movement in the same transaction,
// so the count only grows and changes whenever the store's stock does.
func (r *PGRepository) Version(ctx context.Context, storeID string) (int64, error) {
	var version int64
	err := r.DB.GetContext(ctx, &version, `SELECT count(*) FROM stock_movements WHERE store_id = $1`, storeID)
	return version, err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.BatchID != "" {
		conditions = append(conditions, "batch_id = :batch_id")
		args["batch_id"] = f.BatchID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}
