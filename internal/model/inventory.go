package model

import "time"

type StockBatch struct {
	ID          string     `db:"id" json:"id"`
	StoreID     string     `db:"store_id" json:"store_id"`
	ProductID   string     `db:"product_id" json:"product_id"`
	AisleID     string     `db:"aisle_id" json:"aisle_id"`
	Quantity    int        `db:"quantity" json:"quantity"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiry_date"`   // Nullable, non-perishable when nil
	BatchNumber string     `db:"batch_number" json:"batch_number"` // Optional
	StockedOn   time.Time  `db:"stocked_on" json:"stocked_on"`

	// Joined snapshot fields, copied at admission
	ProductName string `db:"product_name" json:"product_name"`
	ProductSKU  string `db:"product_sku" json:"product_sku"`
	AisleNumber int    `db:"aisle_number" json:"aisle_number"`
	AisleName   string `db:"aisle_name" json:"aisle_name"`
}

// Depleted batches are kept for audit but count as removed stock.
func (b StockBatch) Depleted() bool {
	return b.Quantity == 0
}

func (b StockBatch) AisleDescriptor() string {
	return AisleDescriptor(b.AisleNumber, b.AisleName)
}

const (
	MovementAdmission  = "admission"
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
)

type StockMovement struct {
	ID        string    `db:"id" json:"id"`
	StoreID   string    `db:"store_id" json:"store_id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Type      string    `db:"movement_type" json:"movement_type"`
	Change    int       `db:"quantity_change" json:"quantity_change"`
	Before    int       `db:"quantity_before" json:"quantity_before"`
	After     int       `db:"quantity_after" json:"quantity_after"`
	Reason    string    `db:"reason" json:"reason"`
	Reference *string   `db:"reference" json:"reference"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
