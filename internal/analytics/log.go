// Package analytics keeps the per-store search log and aggregates it into popularity and demand lists.
package analytics

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

// ContentModes groups the searches that look for products directly rather than by nutrient.
var ContentModes = []model.SearchMode{model.SearchAll, model.SearchProduct, model.SearchCategory}

type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type UnfulfilledQuery struct {
	Query string           `json:"query"`
	Mode  model.SearchMode `json:"search_type"`
	Count int              `json:"count"`
}

// Log is an append-only record of one store's searches. It is safe for concurrent use.
// Entries carrying an id are kept once, so the same search may be merged in again from storage.
type Log struct {
	mu      sync.RWMutex
	entries []model.SearchLogEntry
	ids     map[string]struct{}
}

func NewLog(entries ...model.SearchLogEntry) *Log {
	l := &Log{
		entries: make([]model.SearchLogEntry, 0, len(entries)),
		ids:     make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		l.add(e)
	}
	return l
}

func (l *Log) Record(e model.SearchLogEntry) {
	l.mu.Lock()
	l.add(e)
	l.mu.Unlock()
}

// Merge adds the entries not yet in the log and keeps the log ordered by search time.
// It reports how many were added.
func (l *Log) Merge(entries []model.SearchLogEntry) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, e := range entries {
		if l.add(e) {
			added++
		}
	}
	if added > 0 {
		slices.SortStableFunc(l.entries, func(a, b model.SearchLogEntry) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
	return added
}

func (l *Log) add(e model.SearchLogEntry) bool {
	if e.ID != "" {
		if _, ok := l.ids[e.ID]; ok {
			return false
		}
		l.ids[e.ID] = struct{}{}
	}
	l.entries = append(l.entries, e)
	return true
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

type group struct {
	display string
	mode    model.SearchMode
	count   int
	last    int // position of the most recent occurrence
}

// TopQueries counts searches in modes by normalized text, most frequent first and ties most recent first.
// Only entries newer than windowDays before now are counted; zero counts the whole log.
func (l *Log) TopQueries(modes []model.SearchMode, limit int, now time.Time, windowDays int) []QueryCount {
	var since time.Time
	if windowDays > 0 {
		since = now.AddDate(0, 0, -windowDays)
	}

	groups := l.aggregate(func(e model.SearchLogEntry) (string, bool) {
		if !since.IsZero() && e.CreatedAt.Before(since) {
			return "", false
		}
		if !slices.Contains(modes, e.Mode) {
			return "", false
		}
		return normalize(e.Query), true
	})

	out := make([]QueryCount, 0, len(groups))
	for _, g := range top(groups, limit) {
		out = append(out, QueryCount{Query: g.display, Count: g.count})
	}
	return out
}

// Unfulfilled counts zero-result searches by normalized text and mode.
func (l *Log) Unfulfilled(limit int) []UnfulfilledQuery {
	groups := l.aggregate(func(e model.SearchLogEntry) (string, bool) {
		if !e.Unfulfilled() {
			return "", false
		}
		return normalize(e.Query) + "\x00" + string(e.Mode), true
	})

	out := make([]UnfulfilledQuery, 0, len(groups))
	for _, g := range top(groups, limit) {
		out = append(out, UnfulfilledQuery{Query: g.display, Mode: g.mode, Count: g.count})
	}
	return out
}

func (l *Log) aggregate(keyOf func(model.SearchLogEntry) (string, bool)) map[string]*group {
	l.mu.RLock()
	defer l.mu.RUnlock()

	groups := make(map[string]*group)
	for i, e := range l.entries {
		key, ok := keyOf(e)
		if !ok || key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.count++
		g.last = i
		g.display = strings.TrimSpace(e.Query)
		g.mode = e.Mode
	}
	return groups
}

func top(groups map[string]*group, limit int) []*group {
	out := make([]*group, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].last > out[j].last
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
