package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/catalog"
	"github.com/fekuna/omnipos-aisle-service/internal/freshness"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockReader returns the batches of several products in one store.
// It reports NotFound for an unknown store.
type StockReader interface {
	ProductStock(ctx context.Context, storeID string, productIDs model.IDSet) (map[string][]model.StockBatch, error)
}

type CatalogReader interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

type Recorder interface {
	Record(ctx context.Context, entry model.SearchLogEntry) error
}

type Resolver struct {
	catalog    CatalogReader
	stock      StockReader
	recorder   Recorder
	classifier freshness.Classifier
	logger     logger.ZapLogger
}

func NewResolver(catalogReader CatalogReader, stock StockReader, recorder Recorder, classifier freshness.Classifier, log logger.ZapLogger) *Resolver {
	return &Resolver{
		catalog:    catalogReader,
		stock:      stock,
		recorder:   recorder,
		classifier: classifier,
		logger:     log,
	}
}

// Search answers query in one store with products that have sellable stock, most stocked first.
// Every accepted query is recorded, including those with no results; recording failures are only logged.
func (r *Resolver) Search(ctx context.Context, storeID, query string, mode model.SearchMode, now time.Time) ([]model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.ErrEmptyQuery
	}

	snap, err := r.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	hits := NewIndex(snap).Match(query, mode)

	ids := model.NewIDSet()
	for _, h := range hits {
		ids.Add(h.Product.ID)
	}
	stock, err := r.stock.ProductStock(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}

	today := freshness.StartOfDay(now)
	results := make([]model.SearchResult, 0, len(hits))
	for _, h := range hits {
		locations, total := r.locate(stock[h.Product.ID], today)
		if total == 0 {
			continue
		}
		results = append(results, model.SearchResult{
			Product:       h.Product,
			Categories:    h.Categories,
			Nutrients:     h.Nutrients,
			Locations:     locations,
			TotalQuantity: total,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalQuantity != results[j].TotalQuantity {
			return results[i].TotalQuantity > results[j].TotalQuantity
		}
		return results[i].Product.Name < results[j].Product.Name
	})

	entry := model.SearchLogEntry{
		ID:          uuid.New().String(),
		StoreID:     storeID,
		Query:       strings.TrimSpace(query),
		Mode:        mode,
		ResultCount: len(results),
		CreatedAt:   now,
	}
	if err := r.recorder.Record(ctx, entry); err != nil {
		r.logger.Warn("failed to record search", zap.String("store_id", storeID), zap.String("query", entry.Query), zap.Error(err))
	}

	return results, nil
}

// locate groups sellable batches by aisle, ordered by aisle number.
func (r *Resolver) locate(batches []model.StockBatch, today time.Time) ([]model.Location, int) {
	byAisle := make(map[string]*model.Location)
	total := 0
	for _, b := range batches {
		if b.Depleted() || r.classifier.Classify(b.ExpiryDate, today).Status == freshness.Expired {
			continue
		}
		loc, ok := byAisle[b.AisleID]
		if !ok {
			loc = &model.Location{
				AisleID:     b.AisleID,
				AisleNumber: b.AisleNumber,
				AisleName:   b.AisleName,
				Message:     b.AisleDescriptor(),
			}
			byAisle[b.AisleID] = loc
		}
		loc.Quantity += b.Quantity
		total += b.Quantity
	}

	locations := make([]model.Location, 0, len(byAisle))
	for _, loc := range byAisle {
		locations = append(locations, *loc)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].AisleNumber < locations[j].AisleNumber })
	return locations, total
}
