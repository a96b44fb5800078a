package dto

import "time"

type AdmitStockInput struct {
	StoreID     string
	ProductID   string
	AisleID     string
	Quantity    int
	ExpiryDate  *time.Time // Defaults from the product's shelf life when nil
	BatchNumber string
	UserID      string
}

type AdjustStockInput struct {
	StoreID string
	BatchID string
	Delta   int
	Reason  string
	UserID  string
}

type SaleInput struct {
	StoreID   string
	ProductID string
	Quantity  int
	Reference string // Order id
}
