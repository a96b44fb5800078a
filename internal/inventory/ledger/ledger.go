// Package ledger keeps the stock batches of one store in memory and enforces the placement and
// quantity rules on every mutation. Mutations are written through a Journal before they become
// visible to readers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/freshness"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/google/uuid"
)

// Change is one batch state together with the movement that produced it.
type Change struct {
	Batch    model.StockBatch
	Movement model.StockMovement
}

type Journal interface {
	Insert(ctx context.Context, change Change) error
	Apply(ctx context.Context, changes []Change) error
}

// ErrConflict is returned by a Journal when a batch no longer holds the quantity the ledger expected,
// meaning another writer changed it after this ledger was loaded.
var ErrConflict = errors.New("stock batch changed by another writer")

type nopJournal struct{}

func (nopJournal) Insert(context.Context, Change) error { return nil }
func (nopJournal) Apply(context.Context, []Change) error { return nil }

type Option func(*Ledger)

func WithJournal(j Journal) Option {
	return func(l *Ledger) {
		if j != nil {
			l.journal = j
		}
	}
}

func WithClassifier(c freshness.Classifier) Option {
	return func(l *Ledger) { l.classifier = c }
}

func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

type Ledger struct {
	storeID    string
	journal    Journal
	classifier freshness.Classifier
	newID      func() string

	mu      sync.RWMutex
	batches []*model.StockBatch // insertion order
	byID    map[string]*model.StockBatch
}

func New(storeID string, opts ...Option) *Ledger {
	l := &Ledger{
		storeID:    storeID,
		journal:    nopJournal{},
		classifier: freshness.NewClassifier(freshness.DefaultWindowDays),
		newID:      func() string { return uuid.New().String() },
		byID:       make(map[string]*model.StockBatch),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) StoreID() string {
	return l.storeID
}

// Load replaces the ledger contents with persisted batches, keeping their order.
func (l *Ledger) Load(batches []model.StockBatch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.batches = make([]*model.StockBatch, 0, len(batches))
	l.byID = make(map[string]*model.StockBatch, len(batches))
	for i := range batches {
		b := batches[i]
		l.batches = append(l.batches, &b)
		l.byID[b.ID] = &b
	}
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.batches)
}

type AdmitInput struct {
	Product     model.Product
	Aisle       model.Aisle
	Quantity    int
	ExpiryDate  *time.Time
	BatchNumber string
	StockedOn   time.Time
	Reason      string
}

func (l *Ledger) Admit(ctx context.Context, in AdmitInput) (*model.StockBatch, error) {
	if in.Quantity <= 0 {
		return nil, &apperr.InvalidQuantityError{Requested: in.Quantity, Limit: "quantity must be greater than zero"}
	}
	if in.Aisle.StoreID != l.storeID {
		return nil, apperr.NotFound("aisle", in.Aisle.ID)
	}
	if cv := Mismatch(in.Product, in.Aisle); cv != nil {
		return nil, cv
	}

	batch := model.StockBatch{
		ID:          l.newID(),
		StoreID:     l.storeID,
		ProductID:   in.Product.ID,
		AisleID:     in.Aisle.ID,
		Quantity:    in.Quantity,
		ExpiryDate:  in.ExpiryDate,
		BatchNumber: in.BatchNumber,
		StockedOn:   in.StockedOn,
		ProductName: in.Product.Name,
		ProductSKU:  in.Product.SKU,
		AisleNumber: in.Aisle.Number,
		AisleName:   in.Aisle.Name,
	}
	movement := model.StockMovement{
		ID:        l.newID(),
		StoreID:   l.storeID,
		BatchID:   batch.ID,
		ProductID: batch.ProductID,
		Type:      model.MovementAdmission,
		Change:    in.Quantity,
		After:     in.Quantity,
		Reason:    in.Reason,
		CreatedAt: in.StockedOn,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.journal.Insert(ctx, Change{Batch: batch, Movement: movement}); err != nil {
		return nil, fmt.Errorf("failed to persist batch: %w", err)
	}
	stored := batch
	l.batches = append(l.batches, &stored)
	l.byID[stored.ID] = &stored

	return &batch, nil
}

// AdjustQuantity applies delta to a batch. The batch is left untouched when the result would be negative.
func (l *Ledger) AdjustQuantity(ctx context.Context, batchID string, delta int, reason string, at time.Time) (*model.StockBatch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byID[batchID]
	if !ok {
		return nil, apperr.NotFound("stock batch", batchID)
	}

	next := b.Quantity + delta
	if next < 0 {
		return nil, &apperr.InvalidQuantityError{
			BatchID:   batchID,
			Requested: delta,
			Current:   b.Quantity,
			Limit:     "quantity cannot go below zero",
		}
	}
	if delta == 0 {
		out := *b
		return &out, nil
	}

	updated := *b
	updated.Quantity = next
	change := Change{Batch: updated, Movement: model.StockMovement{
		ID:        l.newID(),
		StoreID:   l.storeID,
		BatchID:   b.ID,
		ProductID: b.ProductID,
		Type:      model.MovementAdjustment,
		Change:    delta,
		Before:    b.Quantity,
		After:     next,
		Reason:    reason,
		CreatedAt: at,
	}}
	if err := l.journal.Apply(ctx, []Change{change}); err != nil {
		return nil, fmt.Errorf("failed to persist adjustment: %w", err)
	}
	*b = updated

	return &updated, nil
}

// Consume deducts a sold quantity of a product from its sellable batches, earliest expiry first.
// Non-perishable batches are used last. Nothing changes when sellable stock is insufficient.
func (l *Ledger) Consume(ctx context.Context, productID string, qty int, reference string, now time.Time) ([]model.StockBatch, error) {
	if qty <= 0 {
		return nil, &apperr.InvalidQuantityError{Requested: qty, Limit: "quantity must be greater than zero"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var candidates []*model.StockBatch
	available := 0
	for _, b := range l.batches {
		if b.ProductID != productID || !l.sellable(b, now) {
			continue
		}
		candidates = append(candidates, b)
		available += b.Quantity
	}
	if available < qty {
		return nil, &apperr.InvalidQuantityError{
			Requested: qty,
			Current:   available,
			Limit:     fmt.Sprintf("insufficient sellable stock for product %s", productID),
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return expiresBefore(candidates[i].ExpiryDate, candidates[j].ExpiryDate)
	})

	var ref *string
	if reference != "" {
		ref = &reference
	}
	remaining := qty
	changes := make([]Change, 0, len(candidates))
	for _, b := range candidates {
		if remaining == 0 {
			break
		}
		take := min(b.Quantity, remaining)
		remaining -= take

		updated := *b
		updated.Quantity -= take
		changes = append(changes, Change{Batch: updated, Movement: model.StockMovement{
			ID:        l.newID(),
			StoreID:   l.storeID,
			BatchID:   b.ID,
			ProductID: b.ProductID,
			Type:      model.MovementSale,
			Change:    -take,
			Before:    b.Quantity,
			After:     updated.Quantity,
			Reason:    "sale",
			Reference: ref,
			CreatedAt: now,
		}})
	}

	if err := l.journal.Apply(ctx, changes); err != nil {
		return nil, fmt.Errorf("failed to persist sale: %w", err)
	}
	out := make([]model.StockBatch, 0, len(changes))
	for _, c := range changes {
		*l.byID[c.Batch.ID] = c.Batch
		out = append(out, c.Batch)
	}
	return out, nil
}

func (l *Ledger) sellable(b *model.StockBatch, now time.Time) bool {
	if b.Depleted() {
		return false
	}
	return l.classifier.Classify(b.ExpiryDate, now).Status != freshness.Expired
}

type Entry struct {
	Batch          model.StockBatch
	Classification freshness.Classification
}

type SnapshotOptions struct {
	SortByExpiry    bool // Earliest expiry first, non-perishables last
	IncludeDepleted bool
}

func (l *Ledger) Snapshot(now time.Time, opts SnapshotOptions) []Entry {
	l.mu.RLock()
	entries := make([]Entry, 0, len(l.batches))
	for _, b := range l.batches {
		if b.Depleted() && !opts.IncludeDepleted {
			continue
		}
		entries = append(entries, Entry{Batch: *b, Classification: l.classifier.Classify(b.ExpiryDate, now)})
	}
	l.mu.RUnlock()

	if opts.SortByExpiry {
		sort.SliceStable(entries, func(i, j int) bool {
			return expiresBefore(entries[i].Batch.ExpiryDate, entries[j].Batch.ExpiryDate)
		})
	}
	return entries
}

type AlertItem struct {
	BatchID     string     `json:"id"`
	ProductID   string     `json:"product_id"`
	Product     string     `json:"product"`
	Aisle       string     `json:"aisle"`
	Quantity    int        `json:"quantity"`
	DaysLeft    *int       `json:"days_left,omitempty"`
	ExpiredDays *int       `json:"expired_days,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

type Alerts struct {
	Expired      []AlertItem `json:"expired"`
	ExpiringSoon []AlertItem `json:"expiring_soon"`
	LowStock     []AlertItem `json:"low_stock"`
}

// Capped trims each list to limit entries for display; a non-positive limit keeps them complete.
func (a Alerts) Capped(limit int) Alerts {
	if limit <= 0 {
		return a
	}
	return Alerts{
		Expired:      a.Expired[:min(limit, len(a.Expired))],
		ExpiringSoon: a.ExpiringSoon[:min(limit, len(a.ExpiringSoon))],
		LowStock:     a.LowStock[:min(limit, len(a.LowStock))],
	}
}

// Alerts buckets live batches. Lists are complete; display caps belong to the caller.
func (l *Ledger) Alerts(now time.Time, lowStockThreshold int) Alerts {
	out := Alerts{
		Expired:      []AlertItem{},
		ExpiringSoon: []AlertItem{},
		LowStock:     []AlertItem{},
	}

	for _, e := range l.Snapshot(now, SnapshotOptions{SortByExpiry: true}) {
		item := AlertItem{
			BatchID:    e.Batch.ID,
			ProductID:  e.Batch.ProductID,
			Product:    e.Batch.ProductName,
			Aisle:      e.Batch.AisleDescriptor(),
			Quantity:   e.Batch.Quantity,
			ExpiryDate: e.Batch.ExpiryDate,
		}
		switch e.Classification.Status {
		case freshness.Expired:
			days := -*e.Classification.DaysRemaining
			expired := item
			expired.ExpiredDays = &days
			out.Expired = append(out.Expired, expired)
		case freshness.Expiring:
			days := *e.Classification.DaysRemaining
			expiring := item
			expiring.DaysLeft = &days
			out.ExpiringSoon = append(out.ExpiringSoon, expiring)
		}
		if e.Batch.Quantity < lowStockThreshold {
			out.LowStock = append(out.LowStock, item)
		}
	}

	sort.SliceStable(out.LowStock, func(i, j int) bool {
		return out.LowStock[i].Quantity < out.LowStock[j].Quantity
	})
	return out
}

// ByProduct returns every batch of a product, depleted ones included, in insertion order.
func (l *Ledger) ByProduct(productID string) []model.StockBatch {
	return l.ByProducts(model.NewIDSet(productID))[productID]
}

// ByProducts collects the batches of several products in one read pass.
func (l *Ledger) ByProducts(productIDs model.IDSet) map[string][]model.StockBatch {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string][]model.StockBatch, productIDs.Len())
	for _, b := range l.batches {
		if productIDs.Has(b.ProductID) {
			out[b.ProductID] = append(out[b.ProductID], *b)
		}
	}
	return out
}

type AisleStat struct {
	AisleID      string `json:"-"`
	Number       int    `json:"number"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
	TotalItems   int    `json:"total_items"`
}

// AisleRollup groups live batches by aisle, ordered by aisle number.
func (l *Ledger) AisleRollup() []AisleStat {
	l.mu.RLock()
	stats := make(map[string]*AisleStat)
	products := make(map[string]model.IDSet)
	for _, b := range l.batches {
		if b.Depleted() {
			continue
		}
		s, ok := stats[b.AisleID]
		if !ok {
			s = &AisleStat{AisleID: b.AisleID, Number: b.AisleNumber, Name: b.AisleName}
			stats[b.AisleID] = s
			products[b.AisleID] = model.NewIDSet()
		}
		s.TotalItems += b.Quantity
		products[b.AisleID].Add(b.ProductID)
	}
	l.mu.RUnlock()

	out := make([]AisleStat, 0, len(stats))
	for id, s := range stats {
		s.ProductCount = products[id].Len()
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func expiresBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
