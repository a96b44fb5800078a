package model

import (
	"fmt"
	"strings"
	"time"
)

type SearchMode string

const (
	SearchAll      SearchMode = "all"
	SearchProduct  SearchMode = "product"
	SearchNutrient SearchMode = "nutrient"
	SearchCategory SearchMode = "category"
)

func ParseSearchMode(s string) (SearchMode, error) {
	switch m := SearchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SearchAll, SearchProduct, SearchNutrient, SearchCategory:
		return m, nil
	case "":
		return SearchAll, nil
	default:
		return "", fmt.Errorf("unknown search mode %q", s)
	}
}

type SearchLogEntry struct {
	ID          string     `db:"id" json:"id"`
	StoreID     string     `db:"store_id" json:"store_id"`
	Query       string     `db:"query" json:"query"` // As submitted
	Mode        SearchMode `db:"mode" json:"mode"`
	ResultCount int        `db:"result_count" json:"result_count"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

func (e SearchLogEntry) Unfulfilled() bool {
	return e.ResultCount == 0
}

type Location struct {
	AisleID     string `json:"-"`
	AisleNumber int    `json:"aisle_number"`
	AisleName   string `json:"aisle_name"`
	Quantity    int    `json:"quantity"`
	Message     string `json:"message"`
}

type SearchResult struct {
	Product       Product    `json:"product"`
	Categories    []string   `json:"categories"`
	Nutrients     []string   `json:"nutrients"`
	Locations     []Location `json:"locations"`
	TotalQuantity int        `json:"total_quantity"`
}
