package inventory

import (
	"context"

	"github.com/fekuna/omnipos-aisle-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/ledger"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

type UseCase interface {
	AdmitStock(ctx context.Context, input *dto.AdmitStockInput) (*model.StockBatch, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockBatch, error)
	RecordSale(ctx context.Context, input *dto.SaleInput) ([]model.StockBatch, error)

	ListStock(ctx context.Context, filters *dto.StockFilters) ([]ledger.Entry, error)
	Alerts(ctx context.Context, storeID string) (*ledger.Alerts, error)
	AisleOverview(ctx context.Context, storeID string) ([]ledger.AisleStat, error)
	ListAisles(ctx context.Context, storeID string) ([]dto.AisleSummary, error)
	ProductStock(ctx context.Context, storeID string, productIDs model.IDSet) (map[string][]model.StockBatch, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
