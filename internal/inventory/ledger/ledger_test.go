package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func days(n int) *time.Time {
	t := now.Add(time.Duration(n) * 24 * time.Hour)
	return &t
}

func product(id, name string, categories ...string) model.Product {
	return model.Product{BaseModel: model.BaseModel{ID: id}, Name: name, SKU: "SKU-" + id, CategoryIDs: model.NewIDSet(categories...)}
}

func aisle(id string, number int, name string, allowed ...string) model.Aisle {
	return model.Aisle{BaseModel: model.BaseModel{ID: id}, StoreID: "store-1", Number: number, Name: name, AllowedCategoryIDs: model.NewIDSet(allowed...)}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newLedger(opts ...Option) *Ledger {
	return New("store-1", append([]Option{WithIDGenerator(sequentialIDs())}, opts...)...)
}

type recordingJournal struct {
	inserts []Change
	applied [][]Change
	err     error
}

func (j *recordingJournal) Insert(_ context.Context, c Change) error {
	if j.err != nil {
		return j.err
	}
	j.inserts = append(j.inserts, c)
	return nil
}

func (j *recordingJournal) Apply(_ context.Context, cs []Change) error {
	if j.err != nil {
		return j.err
	}
	j.applied = append(j.applied, cs)
	return nil
}

func TestIsAdmissible(t *testing.T) {
	tests := []struct {
		name     string
		product  model.IDSet
		allowed  model.IDSet
		expected bool
	}{
		{"unrestricted aisle", model.NewIDSet("produce"), model.NewIDSet(), true},
		{"unrestricted aisle, uncategorised product", model.NewIDSet(), model.NewIDSet(), true},
		{"shared category", model.NewIDSet("produce", "organic"), model.NewIDSet("produce"), true},
		{"one overlap is enough", model.NewIDSet("organic"), model.NewIDSet("produce", "organic", "dairy"), true},
		{"disjoint", model.NewIDSet("dairy"), model.NewIDSet("produce"), false},
		{"uncategorised product in restricted aisle", model.NewIDSet(), model.NewIDSet("produce"), false},
		{"nil product set", nil, model.NewIDSet("produce"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsAdmissible(tc.product, tc.allowed))
		})
	}
}

func TestMismatch(t *testing.T) {
	milk := product("p-2", "Whole Milk", "dairy", "chilled")
	fruit := aisle("a-3", 3, "Fruit Aisle", "produce", "organic")

	cv := Mismatch(milk, fruit)
	require.NotNil(t, cv)
	assert.Equal(t, "p-2", cv.ProductID)
	assert.Equal(t, "Aisle 3 - Fruit Aisle", cv.Aisle)
	assert.Equal(t, []string{"chilled", "dairy"}, cv.ProductCategories)
	assert.Equal(t, []string{"organic", "produce"}, cv.AllowedCategories)
	assert.ErrorIs(t, cv, apperr.ErrConstraintViolation)

	assert.Nil(t, Mismatch(milk, aisle("a-9", 9, "Anything")))
	assert.Nil(t, Mismatch(milk, aisle("a-2", 2, "Dairy", "dairy")))
}

func TestAdmit(t *testing.T) {
	ctx := context.Background()
	apples := product("p-1", "Organic Apples", "produce")
	fruit := aisle("a-3", 3, "Fruit Aisle", "produce")

	t.Run("compatible aisle", func(t *testing.T) {
		j := &recordingJournal{}
		l := newLedger(WithJournal(j))

		b, err := l.Admit(ctx, AdmitInput{Product: apples, Aisle: fruit, Quantity: 20, ExpiryDate: days(5), BatchNumber: "B-1", StockedOn: now})
		require.NoError(t, err)
		assert.Equal(t, 20, b.Quantity)
		assert.Equal(t, "Organic Apples", b.ProductName)
		assert.Equal(t, 3, b.AisleNumber)
		assert.Equal(t, "B-1", b.BatchNumber)
		assert.Equal(t, 1, l.Len())

		require.Len(t, j.inserts, 1)
		assert.Equal(t, model.MovementAdmission, j.inserts[0].Movement.Type)
		assert.Equal(t, 20, j.inserts[0].Movement.After)
	})

	t.Run("category mismatch", func(t *testing.T) {
		l := newLedger()
		milk := product("p-2", "Milk", "dairy")

		_, err := l.Admit(ctx, AdmitInput{Product: milk, Aisle: fruit, Quantity: 5, StockedOn: now})
		require.ErrorIs(t, err, apperr.ErrConstraintViolation)

		var cv *apperr.ConstraintViolationError
		require.True(t, errors.As(err, &cv))
		assert.Equal(t, []string{"dairy"}, cv.ProductCategories)
		assert.Equal(t, []string{"produce"}, cv.AllowedCategories)
		assert.Equal(t, "Aisle 3 - Fruit Aisle", cv.Aisle)
		assert.Equal(t, 0, l.Len())
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		l := newLedger()
		for _, q := range []int{0, -3} {
			_, err := l.Admit(ctx, AdmitInput{Product: apples, Aisle: fruit, Quantity: q, StockedOn: now})
			assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
		}
		assert.Equal(t, 0, l.Len())
	})

	t.Run("aisle from another store", func(t *testing.T) {
		l := newLedger()
		other := fruit
		other.StoreID = "store-2"

		_, err := l.Admit(ctx, AdmitInput{Product: apples, Aisle: other, Quantity: 1, StockedOn: now})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("journal failure leaves ledger unchanged", func(t *testing.T) {
		l := newLedger(WithJournal(&recordingJournal{err: errors.New("db down")}))

		_, err := l.Admit(ctx, AdmitInput{Product: apples, Aisle: fruit, Quantity: 1, StockedOn: now})
		require.Error(t, err)
		assert.Equal(t, 0, l.Len())
	})
}

func TestAdjustQuantity(t *testing.T) {
	ctx := context.Background()
	j := &recordingJournal{}
	l := newLedger(WithJournal(j))
	b, err := l.Admit(ctx, AdmitInput{Product: product("p-1", "Apples"), Aisle: aisle("a-7", 7, "Mixed"), Quantity: 5, StockedOn: now})
	require.NoError(t, err)

	updated, err := l.AdjustQuantity(ctx, b.ID, -3, "damaged", now)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Quantity)

	_, err = l.AdjustQuantity(ctx, b.ID, -3, "damaged", now)
	require.ErrorIs(t, err, apperr.ErrInvalidQuantity)
	var iq *apperr.InvalidQuantityError
	require.True(t, errors.As(err, &iq))
	assert.Equal(t, 2, iq.Current)
	assert.Equal(t, 2, l.ByProduct("p-1")[0].Quantity, "failed adjustment must not change quantity")

	depleted, err := l.AdjustQuantity(ctx, b.ID, -2, "sold out", now)
	require.NoError(t, err)
	assert.Equal(t, 0, depleted.Quantity)
	assert.Equal(t, 1, l.Len(), "depleted batches are retained")

	_, err = l.AdjustQuantity(ctx, "missing", 1, "", now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.Len(t, j.applied, 2)
	assert.Equal(t, 5, j.applied[0][0].Movement.Before)
	assert.Equal(t, 2, j.applied[0][0].Movement.After)
}

func TestAdjustQuantityJournalFailure(t *testing.T) {
	ctx := context.Background()
	j := &recordingJournal{}
	l := newLedger(WithJournal(j))
	b, err := l.Admit(ctx, AdmitInput{Product: product("p-1", "Apples"), Aisle: aisle("a-7", 7, "Mixed"), Quantity: 5, StockedOn: now})
	require.NoError(t, err)

	j.err = errors.New("db down")
	_, err = l.AdjustQuantity(ctx, b.ID, 10, "restock", now)
	require.Error(t, err)
	assert.Equal(t, 5, l.ByProduct("p-1")[0].Quantity)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	mixed := aisle("a-7", 7, "Mixed")

	_, err := l.Admit(ctx, AdmitInput{Product: product("p-1", "Rice"), Aisle: mixed, Quantity: 40, StockedOn: now})
	require.NoError(t, err)
	_, err = l.Admit(ctx, AdmitInput{Product: product("p-2", "Yogurt"), Aisle: mixed, Quantity: 8, ExpiryDate: days(2), StockedOn: now})
	require.NoError(t, err)
	empty, err := l.Admit(ctx, AdmitInput{Product: product("p-3", "Bread"), Aisle: mixed, Quantity: 1, ExpiryDate: days(-1), StockedOn: now})
	require.NoError(t, err)
	_, err = l.AdjustQuantity(ctx, empty.ID, -1, "", now)
	require.NoError(t, err)

	first := l.Snapshot(now, SnapshotOptions{})
	second := l.Snapshot(now, SnapshotOptions{})
	assert.Equal(t, first, second)

	require.Len(t, first, 2)
	assert.Equal(t, "Rice", first[0].Batch.ProductName)
	assert.Equal(t, "Yogurt", first[1].Batch.ProductName)

	sorted := l.Snapshot(now, SnapshotOptions{SortByExpiry: true, IncludeDepleted: true})
	require.Len(t, sorted, 3)
	assert.Equal(t, "Bread", sorted[0].Batch.ProductName)
	assert.Equal(t, "Yogurt", sorted[1].Batch.ProductName)
	assert.Equal(t, "Rice", sorted[2].Batch.ProductName, "non-perishables sort last")
}

func TestAlerts(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	mixed := aisle("a-7", 7, "Mixed")

	admit := func(name string, qty int, expiry *time.Time) {
		_, err := l.Admit(ctx, AdmitInput{Product: product("p-"+name, name), Aisle: mixed, Quantity: qty, ExpiryDate: expiry, StockedOn: now})
		require.NoError(t, err)
	}
	admit("Old Milk", 10, days(-4))
	admit("Yogurt", 30, days(1))
	admit("Cheese", 3, days(30))
	admit("Salt", 2, nil)

	alerts := l.Alerts(now, 5)

	require.Len(t, alerts.Expired, 1)
	assert.Equal(t, "Old Milk", alerts.Expired[0].Product)
	assert.Equal(t, "Aisle 7 - Mixed", alerts.Expired[0].Aisle)
	require.NotNil(t, alerts.Expired[0].ExpiredDays)
	assert.Equal(t, 4, *alerts.Expired[0].ExpiredDays)

	require.Len(t, alerts.ExpiringSoon, 1)
	assert.Equal(t, "Yogurt", alerts.ExpiringSoon[0].Product)
	require.NotNil(t, alerts.ExpiringSoon[0].DaysLeft)
	assert.Equal(t, 1, *alerts.ExpiringSoon[0].DaysLeft)

	require.Len(t, alerts.LowStock, 2)
	assert.Equal(t, "Salt", alerts.LowStock[0].Product)
	assert.Equal(t, "Cheese", alerts.LowStock[1].Product)

	capped := alerts.Capped(1)
	assert.Len(t, capped.LowStock, 1)
	assert.Len(t, capped.Expired, 1)
	assert.Equal(t, alerts, alerts.Capped(0))
}

func TestConsume(t *testing.T) {
	ctx := context.Background()
	j := &recordingJournal{}
	l := newLedger(WithJournal(j))
	mixed := aisle("a-7", 7, "Mixed")
	apples := product("p-1", "Apples")

	admit := func(qty int, expiry *time.Time) string {
		b, err := l.Admit(ctx, AdmitInput{Product: apples, Aisle: mixed, Quantity: qty, ExpiryDate: expiry, StockedOn: now})
		require.NoError(t, err)
		return b.ID
	}
	late := admit(10, days(9))
	expired := admit(10, days(-1))
	early := admit(4, days(2))

	_, err := l.Consume(ctx, "p-1", 15, "order-1", now)
	require.ErrorIs(t, err, apperr.ErrInvalidQuantity, "expired stock is not sellable")

	changed, err := l.Consume(ctx, "p-1", 6, "order-1", now)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, early, changed[0].ID)
	assert.Equal(t, 0, changed[0].Quantity)
	assert.Equal(t, late, changed[1].ID)
	assert.Equal(t, 8, changed[1].Quantity)

	byID := map[string]int{}
	for _, b := range l.ByProduct("p-1") {
		byID[b.ID] = b.Quantity
	}
	assert.Equal(t, 10, byID[expired])

	require.Len(t, j.applied, 1)
	require.NotNil(t, j.applied[0][0].Movement.Reference)
	assert.Equal(t, "order-1", *j.applied[0][0].Movement.Reference)
}

func TestAisleRollup(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	fruit := aisle("a-3", 3, "Fruit Aisle")
	mixed := aisle("a-7", 7, "Mixed")

	for _, in := range []AdmitInput{
		{Product: product("p-1", "Apples"), Aisle: mixed, Quantity: 5},
		{Product: product("p-1", "Apples"), Aisle: fruit, Quantity: 20},
		{Product: product("p-2", "Pears"), Aisle: fruit, Quantity: 7},
		{Product: product("p-2", "Pears"), Aisle: fruit, Quantity: 3},
	} {
		_, err := l.Admit(ctx, in)
		require.NoError(t, err)
	}

	assert.Equal(t, []AisleStat{
		{AisleID: "a-3", Number: 3, Name: "Fruit Aisle", ProductCount: 2, TotalItems: 30},
		{AisleID: "a-7", Number: 7, Name: "Mixed", ProductCount: 1, TotalItems: 5},
	}, l.AisleRollup())
}

func TestConcurrentAdmitAndRead(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	mixed := aisle("a-7", 7, "Mixed")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := l.Admit(ctx, AdmitInput{Product: product("p-1", "Apples"), Aisle: mixed, Quantity: 1, StockedOn: now})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			for _, e := range l.Snapshot(now, SnapshotOptions{}) {
				assert.NotEmpty(t, e.Batch.ID)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
}
