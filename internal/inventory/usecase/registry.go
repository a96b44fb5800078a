package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/catalog"
	"github.com/fekuna/omnipos-aisle-service/internal/freshness"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/ledger"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	ledger  *ledger.Ledger
	version int64
	checked time.Time
}

// registry holds one ledger per store, loaded from the repository on first use and reloaded whenever
// the repository version moves past the one the ledger was built from. Concurrent reads of the same
// store share one check and other stores are not blocked.
type registry struct {
	repo       inventory.Repository
	catalog    catalog.UseCase
	classifier freshness.Classifier
	refresh    time.Duration
	clock      func() time.Time
	logger     logger.ZapLogger

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

func newRegistry(repo inventory.Repository, catalogUC catalog.UseCase, classifier freshness.Classifier, refresh time.Duration, log logger.ZapLogger) *registry {
	return &registry{
		repo:       repo,
		catalog:    catalogUC,
		classifier: classifier,
		refresh:    refresh,
		clock:      time.Now,
		logger:     log,
		entries:    make(map[string]entry),
	}
}

// read returns the store's ledger for a read. The repository version is checked at most once per
// refresh interval; when the check fails a previously loaded ledger is served as is.
func (r *registry) read(ctx context.Context, storeID string) (*ledger.Ledger, error) {
	r.mu.RLock()
	e, ok := r.entries[storeID]
	r.mu.RUnlock()
	if ok && r.refresh > 0 && r.clock().Sub(e.checked) < r.refresh {
		return e.ledger, nil
	}

	val, err, _ := r.group.Do(storeID, func() (any, error) {
		return r.sync(ctx, storeID)
	})
	if err != nil {
		if ok {
			r.logger.Warn("failed to check stock ledger version, serving cached ledger", zap.String("store_id", storeID), zap.Error(err))
			return e.ledger, nil
		}
		return nil, err
	}
	return val.(*ledger.Ledger), nil
}

// write returns the store's ledger for a mutation. Callers hold the store lock, so the version read
// here stays current until they release it.
func (r *registry) write(ctx context.Context, storeID string) (*ledger.Ledger, error) {
	return r.sync(ctx, storeID)
}

func (r *registry) sync(ctx context.Context, storeID string) (*ledger.Ledger, error) {
	r.mu.RLock()
	e, ok := r.entries[storeID]
	r.mu.RUnlock()

	version, err := r.repo.Version(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if ok && e.version == version {
		r.install(storeID, entry{ledger: e.ledger, version: version, checked: r.clock()})
		return e.ledger, nil
	}

	if !ok {
		if _, err := r.catalog.GetStore(ctx, storeID); err != nil {
			return nil, err
		}
	}
	batches, err := r.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	l := ledger.New(storeID, ledger.WithJournal(r.repo), ledger.WithClassifier(r.classifier))
	l.Load(batches)
	r.install(storeID, entry{ledger: l, version: version, checked: r.clock()})

	r.logger.Info("stock ledger loaded",
		zap.String("store_id", storeID),
		zap.Int("batches", len(batches)),
		zap.Int64("version", version),
	)
	return l, nil
}

// install keeps the newer of the current and the proposed entry.
func (r *registry) install(storeID string, e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[storeID]; ok && cur.version > e.version {
		return
	}
	r.entries[storeID] = e
}

// advance records the version reached after l was mutated by this process.
func (r *registry) advance(ctx context.Context, storeID string, l *ledger.Ledger) {
	version, err := r.repo.Version(ctx, storeID)
	if err != nil {
		r.logger.Warn("failed to read stock ledger version", zap.String("store_id", storeID), zap.Error(err))
		r.drop(storeID)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[storeID]; ok && cur.ledger == l {
		r.entries[storeID] = entry{ledger: l, version: version, checked: r.clock()}
	}
}

// drop forgets the store's ledger so the next use reloads it.
func (r *registry) drop(storeID string) {
	r.mu.Lock()
	delete(r.entries, storeID)
	r.mu.Unlock()
}
