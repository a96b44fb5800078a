package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name          string          `db:"name" json:"name"`
	SKU           string          `db:"sku" json:"sku"`
	Description   string          `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	ShelfLifeDays int             `db:"shelf_life_days" json:"shelf_life_days"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CategoryIDs   IDSet           `db:"-" json:"category_ids"` // Loaded from product_categories
	NutrientIDs   IDSet           `db:"-" json:"nutrient_ids"` // Loaded from product_nutrients
}
