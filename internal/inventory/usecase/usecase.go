package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/catalog"
	"github.com/fekuna/omnipos-aisle-service/internal/freshness"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/ledger"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"go.uber.org/zap"
)

// Locker serializes mutations of one store across service replicas.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type Options struct {
	ExpiringSoonDays  int
	LowStockThreshold int
	LockTTL           time.Duration

	// RefreshInterval bounds how long reads trust a loaded ledger before checking the repository
	// for writes from other replicas. Zero checks on every read.
	RefreshInterval time.Duration
}

type inventoryUseCase struct {
	repo       inventory.Repository
	catalog    catalog.UseCase
	locker     Locker
	registry   *registry
	classifier freshness.Classifier
	opts       Options
	clock      func() time.Time
	logger     logger.ZapLogger
}

// NewInventoryUseCase accepts a nil locker for single-replica deployments.
func NewInventoryUseCase(repo inventory.Repository, catalogUC catalog.UseCase, locker Locker, opts Options, log logger.ZapLogger) inventory.UseCase {
	classifier := freshness.NewClassifier(opts.ExpiringSoonDays)
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Second
	}
	return &inventoryUseCase{
		repo:       repo,
		catalog:    catalogUC,
		locker:     locker,
		registry:   newRegistry(repo, catalogUC, classifier, opts.RefreshInterval, log),
		classifier: classifier,
		opts:       opts,
		clock:      time.Now,
		logger:     log,
	}
}

func (uc *inventoryUseCase) today() time.Time {
	return freshness.StartOfDay(uc.clock())
}

func (uc *inventoryUseCase) lock(ctx context.Context, storeID string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}
	release, err := uc.locker.AcquireLock(ctx, fmt.Sprintf("lock:stock:%s", storeID), uc.opts.LockTTL)
	if err != nil {
		uc.logger.Warn("failed to acquire stock lock", zap.String("store_id", storeID), zap.Error(err))
		return nil, err
	}
	return release, nil
}

// mutate runs fn under the store lock on a ledger that is current with the repository.
// A conflict means another writer got past the lock, so the ledger is dropped and rebuilt on next use.
func (uc *inventoryUseCase) mutate(ctx context.Context, storeID string, fn func(*ledger.Ledger) error) error {
	release, err := uc.lock(ctx, storeID)
	if err != nil {
		return err
	}
	defer release()

	l, err := uc.registry.write(ctx, storeID)
	if err != nil {
		return err
	}
	if err := fn(l); err != nil {
		if errors.Is(err, ledger.ErrConflict) {
			uc.logger.Warn("stock changed by another writer, reloading ledger", zap.String("store_id", storeID), zap.Error(err))
			uc.registry.drop(storeID)
		}
		return err
	}
	uc.registry.advance(ctx, storeID, l)
	return nil
}

func (uc *inventoryUseCase) AdmitStock(ctx context.Context, input *dto.AdmitStockInput) (*model.StockBatch, error) {
	product, err := uc.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	aisle, err := uc.catalog.GetAisle(ctx, input.AisleID)
	if err != nil {
		return nil, err
	}

	now := uc.clock()
	expiry := input.ExpiryDate
	if expiry == nil && product.ShelfLifeDays > 0 {
		d := freshness.StartOfDay(now).AddDate(0, 0, product.ShelfLifeDays)
		expiry = &d
	}

	var batch *model.StockBatch
	err = uc.mutate(ctx, input.StoreID, func(l *ledger.Ledger) error {
		var err error
		batch, err = l.Admit(ctx, ledger.AdmitInput{
			Product:     *product,
			Aisle:       *aisle,
			Quantity:    input.Quantity,
			ExpiryDate:  expiry,
			BatchNumber: input.BatchNumber,
			StockedOn:   now,
			Reason:      reason("admission", input.UserID),
		})
		return err
	})
	if err != nil {
		var cv *apperr.ConstraintViolationError
		if errors.As(err, &cv) {
			uc.nameCategories(ctx, cv)
		}
		return nil, err
	}

	uc.logger.Info("stock admitted",
		zap.String("store_id", input.StoreID),
		zap.String("batch_id", batch.ID),
		zap.String("product_id", batch.ProductID),
		zap.Int("quantity", batch.Quantity),
	)
	return batch, nil
}

// nameCategories swaps category ids for names when the catalog can resolve them.
func (uc *inventoryUseCase) nameCategories(ctx context.Context, cv *apperr.ConstraintViolationError) {
	snap, err := uc.catalog.Snapshot(ctx)
	if err != nil {
		uc.logger.Warn("failed to resolve category names", zap.Error(err))
		return
	}
	cv.ProductCategories = snap.CategoryNames(model.NewIDSet(cv.ProductCategories...))
	cv.AllowedCategories = snap.CategoryNames(model.NewIDSet(cv.AllowedCategories...))
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockBatch, error) {
	var batch *model.StockBatch
	err := uc.mutate(ctx, input.StoreID, func(l *ledger.Ledger) error {
		var err error
		batch, err = l.AdjustQuantity(ctx, input.BatchID, input.Delta, reason(input.Reason, input.UserID), uc.clock())
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock adjusted",
		zap.String("store_id", input.StoreID),
		zap.String("batch_id", batch.ID),
		zap.Int("delta", input.Delta),
		zap.Int("quantity", batch.Quantity),
	)
	return batch, nil
}

func (uc *inventoryUseCase) RecordSale(ctx context.Context, input *dto.SaleInput) ([]model.StockBatch, error) {
	var touched []model.StockBatch
	err := uc.mutate(ctx, input.StoreID, func(l *ledger.Ledger) error {
		var err error
		touched, err = l.Consume(ctx, input.ProductID, input.Quantity, input.Reference, uc.clock())
		return err
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (uc *inventoryUseCase) ListStock(ctx context.Context, filters *dto.StockFilters) ([]ledger.Entry, error) {
	l, err := uc.registry.read(ctx, filters.StoreID)
	if err != nil {
		return nil, err
	}

	entries := l.Snapshot(uc.today(), ledger.SnapshotOptions{
		SortByExpiry:    filters.SortByExpiry,
		IncludeDepleted: filters.IncludeDepleted,
	})
	if filters.ProductID == "" && filters.AisleID == "" && filters.Status == "" {
		return entries, nil
	}

	out := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		if filters.ProductID != "" && e.Batch.ProductID != filters.ProductID {
			continue
		}
		if filters.AisleID != "" && e.Batch.AisleID != filters.AisleID {
			continue
		}
		if filters.Status != "" && string(e.Classification.Status) != filters.Status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (uc *inventoryUseCase) Alerts(ctx context.Context, storeID string) (*ledger.Alerts, error) {
	l, err := uc.registry.read(ctx, storeID)
	if err != nil {
		return nil, err
	}
	alerts := l.Alerts(uc.today(), uc.opts.LowStockThreshold)
	return &alerts, nil
}

func (uc *inventoryUseCase) AisleOverview(ctx context.Context, storeID string) ([]ledger.AisleStat, error) {
	l, err := uc.registry.read(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return l.AisleRollup(), nil
}

// ListAisles returns every aisle of the store ordered by number, empty ones included.
func (uc *inventoryUseCase) ListAisles(ctx context.Context, storeID string) ([]dto.AisleSummary, error) {
	l, err := uc.registry.read(ctx, storeID)
	if err != nil {
		return nil, err
	}
	aisles, err := uc.catalog.ListAisles(ctx, storeID)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]ledger.AisleStat)
	for _, s := range l.AisleRollup() {
		stats[s.AisleID] = s
	}
	snap, err := uc.catalog.Snapshot(ctx)
	if err != nil {
		uc.logger.Warn("failed to resolve category names", zap.Error(err))
	}

	out := make([]dto.AisleSummary, 0, len(aisles))
	for _, a := range aisles {
		summary := dto.AisleSummary{
			Aisle:        a,
			ProductCount: stats[a.ID].ProductCount,
			TotalItems:   stats[a.ID].TotalItems,
		}
		if snap != nil {
			summary.AllowedCategories = snap.CategoryNames(a.AllowedCategoryIDs)
		} else {
			summary.AllowedCategories = a.AllowedCategoryIDs.Sorted()
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Aisle.Number < out[j].Aisle.Number })
	return out, nil
}

func (uc *inventoryUseCase) ProductStock(ctx context.Context, storeID string, productIDs model.IDSet) (map[string][]model.StockBatch, error) {
	l, err := uc.registry.read(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return l.ByProducts(productIDs), nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func reason(text, userID string) string {
	if userID == "" {
		return text
	}
	return fmt.Sprintf("%s (by %s)", text, userID)
}
