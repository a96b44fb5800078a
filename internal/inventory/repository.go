package inventory

import (
	"context"

	"github.com/fekuna/omnipos-aisle-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/ledger"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

type Repository interface {
	// Batch and movement writes, used as the ledger journal
	ledger.Journal

	ListByStore(ctx context.Context, storeID string) ([]model.StockBatch, error)
	// Version changes whenever any replica writes to the store's stock
	Version(ctx context.Context, storeID string) (int64, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
