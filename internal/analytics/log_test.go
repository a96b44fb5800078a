package analytics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func entry(query string, mode model.SearchMode, results int, at time.Time) model.SearchLogEntry {
	return model.SearchLogEntry{StoreID: "s-1", Query: query, Mode: mode, ResultCount: results, CreatedAt: at}
}

func TestTopQueriesGroupsCaseInsensitively(t *testing.T) {
	l := NewLog()
	for i := 0; i < 3; i++ {
		l.Record(entry("apple", model.SearchProduct, 1, now))
	}
	l.Record(entry("Apple ", model.SearchProduct, 1, now))
	l.Record(entry("milk", model.SearchProduct, 1, now))

	got := l.TopQueries([]model.SearchMode{model.SearchProduct}, 5, now, 0)
	assert.Equal(t, []QueryCount{{Query: "Apple", Count: 4}, {Query: "milk", Count: 1}}, got)
}

func TestTopQueriesTiesPreferMostRecent(t *testing.T) {
	l := NewLog(
		entry("bread", model.SearchAll, 1, now),
		entry("eggs", model.SearchAll, 1, now),
		entry("bread", model.SearchAll, 1, now),
		entry("eggs", model.SearchAll, 1, now),
		entry("rice", model.SearchAll, 1, now),
	)

	got := l.TopQueries(ContentModes, 2, now, 0)
	assert.Equal(t, []QueryCount{{Query: "eggs", Count: 2}, {Query: "bread", Count: 2}}, got)
}

func TestTopQueriesRespectsModesAndWindow(t *testing.T) {
	l := NewLog(
		entry("vitamin c", model.SearchNutrient, 2, now),
		entry("apples", model.SearchCategory, 1, now.AddDate(0, 0, -40)),
		entry("apples", model.SearchAll, 1, now.AddDate(0, 0, -2)),
	)

	assert.Equal(t, []QueryCount{{Query: "vitamin c", Count: 1}}, l.TopQueries([]model.SearchMode{model.SearchNutrient}, 5, now, 30))
	assert.Equal(t, []QueryCount{{Query: "apples", Count: 1}}, l.TopQueries(ContentModes, 5, now, 30))
	assert.Equal(t, []QueryCount{{Query: "apples", Count: 2}}, l.TopQueries(ContentModes, 5, now, 0))
}

func TestUnfulfilledGroupsByTextAndMode(t *testing.T) {
	l := NewLog(
		entry("zzz", model.SearchAll, 0, now),
		entry("ZZZ", model.SearchAll, 0, now),
		entry("zzz", model.SearchNutrient, 0, now),
		entry("apple", model.SearchAll, 3, now),
	)

	got := l.Unfulfilled(10)
	assert.Equal(t, []UnfulfilledQuery{
		{Query: "ZZZ", Mode: model.SearchAll, Count: 2},
		{Query: "zzz", Mode: model.SearchNutrient, Count: 1},
	}, got)
	assert.Empty(t, NewLog().Unfulfilled(10))
}

func TestRecordIsConcurrencySafe(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Record(entry(fmt.Sprintf("q%d", i%5), model.SearchAll, 0, now))
			_ = l.TopQueries(ContentModes, 3, now, 0)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
	for _, q := range l.TopQueries(ContentModes, 0, now, 0) {
		assert.Equal(t, 10, q.Count)
	}
}

func TestMergeSkipsKnownEntriesAndKeepsTimeOrder(t *testing.T) {
	early := entry("plum", model.SearchProduct, 1, now.Add(-time.Hour))
	early.ID = "e-1"
	late := entry("fig", model.SearchProduct, 1, now)
	late.ID = "e-2"
	l := NewLog(late)

	assert.Equal(t, 1, l.Merge([]model.SearchLogEntry{early, late}))
	assert.Equal(t, 0, l.Merge([]model.SearchLogEntry{early}))
	assert.Equal(t, 2, l.Len())

	// fig is the most recent search, so it wins the tie
	top := l.TopQueries([]model.SearchMode{model.SearchProduct}, 5, now, 0)
	assert.Equal(t, []QueryCount{{Query: "fig", Count: 1}, {Query: "plum", Count: 1}}, top)
}
