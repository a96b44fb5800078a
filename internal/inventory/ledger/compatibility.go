package ledger

import (
	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

// IsAdmissible reports whether a product may be placed in an aisle. An aisle without allowed
// categories is unrestricted; otherwise one shared category is enough.
func IsAdmissible(productCategories, aisleAllowed model.IDSet) bool {
	if aisleAllowed.Len() == 0 {
		return true
	}
	return productCategories.Intersects(aisleAllowed)
}

// Mismatch returns the violation for placing product in aisle, or nil when the placement is allowed.
// Category fields carry ids.
func Mismatch(product model.Product, aisle model.Aisle) *apperr.ConstraintViolationError {
	if IsAdmissible(product.CategoryIDs, aisle.AllowedCategoryIDs) {
		return nil
	}
	return &apperr.ConstraintViolationError{
		ProductID:         product.ID,
		ProductName:       product.Name,
		AisleID:           aisle.ID,
		Aisle:             aisle.Descriptor(),
		ProductCategories: product.CategoryIDs.Sorted(),
		AllowedCategories: aisle.AllowedCategoryIDs.Sorted(),
	}
}
