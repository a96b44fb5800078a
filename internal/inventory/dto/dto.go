package dto

import "github.com/fekuna/omnipos-aisle-service/internal/model"

type StockFilters struct {
	StoreID         string
	ProductID       string
	AisleID         string
	Status          string // safe, expiring, expired; empty for all
	SortByExpiry    bool
	IncludeDepleted bool
}

type MovementFilters struct {
	StoreID      string
	ProductID    string
	BatchID      string
	MovementType string
	Page         int
	PageSize     int
}

// AisleSummary is an aisle with its allowed category names and what is stocked in it.
type AisleSummary struct {
	Aisle             model.Aisle
	AllowedCategories []string // Empty means unrestricted
	ProductCount      int
	TotalItems        int
}
