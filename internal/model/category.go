package model

type Category struct {
	BaseModel
	ParentID    *string `db:"parent_id" json:"parent_id"` // Nullable
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Icon        string  `db:"icon" json:"icon"`
}

const (
	NutrientVitamin = "vitamin"
	NutrientMineral = "mineral"
	NutrientMacro   = "macro"
	NutrientOther   = "other"
)

type NutrientType struct {
	BaseModel
	Name           string `db:"name" json:"name"`
	Classification string `db:"classification" json:"classification"` // vitamin, mineral, macro, other
	Description    string `db:"description" json:"description"`
}
