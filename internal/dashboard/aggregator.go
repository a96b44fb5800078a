// Package dashboard composes stock alerts, aisle rollups and search analytics into one store view.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/analytics"
	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/ledger"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

const (
	SectionAlerts              = "alerts"
	SectionAisleOverview       = "aisle_overview"
	SectionPopularProducts     = "popular_products"
	SectionPopularNutrients    = "popular_nutrients"
	SectionUnfulfilledSearches = "unfulfilled_searches"
)

type StockReader interface {
	Alerts(ctx context.Context, storeID string) (*ledger.Alerts, error)
	AisleOverview(ctx context.Context, storeID string) ([]ledger.AisleStat, error)
}

type SearchStats interface {
	TopQueries(ctx context.Context, storeID string, modes []model.SearchMode, limit int, now time.Time, windowDays int) ([]analytics.QueryCount, error)
	Unfulfilled(ctx context.Context, storeID string, limit int) ([]analytics.UnfulfilledQuery, error)
}

type Options struct {
	AlertItemLimit   int
	TopQueriesLimit  int
	UnfulfilledLimit int
	WindowDays       int
}

// View is one store's dashboard. Sections listed in Unavailable are left empty.
type View struct {
	StoreID             string                       `json:"store_id"`
	GeneratedAt         time.Time                    `json:"generated_at"`
	Alerts              ledger.Alerts                `json:"alerts"`
	AisleOverview       []ledger.AisleStat           `json:"aisle_overview"`
	PopularProducts     []analytics.QueryCount       `json:"popular_products"`
	PopularNutrients    []analytics.QueryCount       `json:"popular_nutrients"`
	UnfulfilledSearches []analytics.UnfulfilledQuery `json:"unfulfilled_searches"`
	Unavailable         []string                     `json:"unavailable,omitempty"`
}

type Aggregator struct {
	stock  StockReader
	search SearchStats
	opts   Options
}

func NewAggregator(stock StockReader, search SearchStats, opts Options) *Aggregator {
	return &Aggregator{stock: stock, search: search, opts: opts}
}

// Build reads every section concurrently. When some sections fail the view is still returned,
// together with a PartialAggregationError naming them. An unknown store fails the whole build.
func (a *Aggregator) Build(ctx context.Context, storeID string, now time.Time) (*View, error) {
	view := &View{
		StoreID:             storeID,
		GeneratedAt:         now,
		Alerts:              ledger.Alerts{Expired: []ledger.AlertItem{}, ExpiringSoon: []ledger.AlertItem{}, LowStock: []ledger.AlertItem{}},
		AisleOverview:       []ledger.AisleStat{},
		PopularProducts:     []analytics.QueryCount{},
		PopularNutrients:    []analytics.QueryCount{},
		UnfulfilledSearches: []analytics.UnfulfilledQuery{},
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		causes = make(map[string]error)
	)
	section := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail := func(err error) {
				mu.Lock()
				causes[name] = err
				mu.Unlock()
			}
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("section %s panicked: %v", name, r))
				}
			}()
			if err := fn(); err != nil {
				fail(err)
			}
		}()
	}

	section(SectionAlerts, func() error {
		alerts, err := a.stock.Alerts(ctx, storeID)
		if err != nil {
			return err
		}
		view.Alerts = alerts.Capped(a.opts.AlertItemLimit)
		return nil
	})
	section(SectionAisleOverview, func() error {
		stats, err := a.stock.AisleOverview(ctx, storeID)
		if err != nil {
			return err
		}
		view.AisleOverview = stats
		return nil
	})
	section(SectionPopularProducts, func() error {
		top, err := a.search.TopQueries(ctx, storeID, analytics.ContentModes, a.opts.TopQueriesLimit, now, a.opts.WindowDays)
		if err != nil {
			return err
		}
		view.PopularProducts = top
		return nil
	})
	section(SectionPopularNutrients, func() error {
		top, err := a.search.TopQueries(ctx, storeID, []model.SearchMode{model.SearchNutrient}, a.opts.TopQueriesLimit, now, a.opts.WindowDays)
		if err != nil {
			return err
		}
		view.PopularNutrients = top
		return nil
	})
	section(SectionUnfulfilledSearches, func() error {
		missing, err := a.search.Unfulfilled(ctx, storeID, a.opts.UnfulfilledLimit)
		if err != nil {
			return err
		}
		view.UnfulfilledSearches = missing
		return nil
	})
	wg.Wait()

	if len(causes) == 0 {
		return view, nil
	}
	if err := causes[SectionAlerts]; errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	partial := &apperr.PartialAggregationError{Causes: causes}
	view.Unavailable = partial.Sections()
	return view, partial
}
