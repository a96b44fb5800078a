package model

import "fmt"

type Store struct {
	BaseModel
	Name     string `db:"name" json:"name"`
	Address  string `db:"address" json:"address"`
	Phone    string `db:"phone" json:"phone"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

type Aisle struct {
	BaseModel
	StoreID            string `db:"store_id" json:"store_id"`
	Number             int    `db:"number" json:"number"` // Unique within store
	Name               string `db:"name" json:"name"`
	AllowedCategoryIDs IDSet  `db:"-" json:"allowed_category_ids"` // Empty means unrestricted
}

// Descriptor is the short human label used in alerts and directions.
func (a Aisle) Descriptor() string {
	return AisleDescriptor(a.Number, a.Name)
}

func AisleDescriptor(number int, name string) string {
	return fmt.Sprintf("Aisle %d - %s", number, name)
}
