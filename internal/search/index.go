// Package search resolves free-text queries to products and their shelf locations in one store.
package search

import (
	"strings"

	"github.com/fekuna/omnipos-aisle-service/internal/catalog"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

type entry struct {
	product    model.Product
	name       string
	categories []string // display names
	nutrients  []string
	catKeys    []string // lower-cased names
	nutKeys    []string
}

// Hit is a matched product with the category and nutrient names it carries.
type Hit struct {
	Product    model.Product
	Categories []string
	Nutrients  []string
}

// Index matches queries by case-insensitive substring over product, nutrient and category names.
type Index struct {
	entries []entry
}

func NewIndex(snap *catalog.Snapshot) *Index {
	ix := &Index{entries: make([]entry, 0, len(snap.Products))}
	for _, p := range snap.Products {
		e := entry{
			product:    p,
			name:       strings.ToLower(p.Name),
			categories: snap.CategoryNames(p.CategoryIDs),
			nutrients:  snap.NutrientNames(p.NutrientIDs),
		}
		e.catKeys = lowerAll(e.categories)
		e.nutKeys = lowerAll(e.nutrients)
		ix.entries = append(ix.entries, e)
	}
	return ix
}

// Match returns the products matching query under mode, in catalog order.
// A blank query matches nothing.
func (ix *Index) Match(query string, mode model.SearchMode) []Hit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var hits []Hit
	for _, e := range ix.entries {
		if !e.matches(q, mode) {
			continue
		}
		hits = append(hits, Hit{Product: e.product, Categories: e.categories, Nutrients: e.nutrients})
	}
	return hits
}

func (e entry) matches(q string, mode model.SearchMode) bool {
	byName := strings.Contains(e.name, q)
	switch mode {
	case model.SearchProduct:
		return byName
	case model.SearchNutrient:
		return anyContains(e.nutKeys, q)
	case model.SearchCategory:
		return anyContains(e.catKeys, q)
	default:
		return byName || anyContains(e.nutKeys, q) || anyContains(e.catKeys, q)
	}
}

func anyContains(keys []string, q string) bool {
	for _, k := range keys {
		if strings.Contains(k, q) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
