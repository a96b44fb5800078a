package catalog

import (
	"sort"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

// Snapshot is the searchable catalog: active products plus the names their ids refer to.
type Snapshot struct {
	Products   []model.Product               `json:"products"`
	Categories map[string]model.Category     `json:"categories"`
	Nutrients  map[string]model.NutrientType `json:"nutrients"`
}

func NewSnapshot(products []model.Product, categories []model.Category, nutrients []model.NutrientType) *Snapshot {
	s := &Snapshot{
		Products:   products,
		Categories: make(map[string]model.Category, len(categories)),
		Nutrients:  make(map[string]model.NutrientType, len(nutrients)),
	}
	for _, c := range categories {
		s.Categories[c.ID] = c
	}
	for _, n := range nutrients {
		s.Nutrients[n.ID] = n
	}
	return s
}

// CategoryNames resolves ids to names, sorted. Unknown ids are kept as-is.
func (s *Snapshot) CategoryNames(ids model.IDSet) []string {
	names := make([]string, 0, ids.Len())
	for id := range ids {
		if c, ok := s.Categories[id]; ok {
			names = append(names, c.Name)
		} else {
			names = append(names, id)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Snapshot) NutrientNames(ids model.IDSet) []string {
	names := make([]string, 0, ids.Len())
	for id := range ids {
		if n, ok := s.Nutrients[id]; ok {
			names = append(names, n.Name)
		} else {
			names = append(names, id)
		}
	}
	sort.Strings(names)
	return names
}
