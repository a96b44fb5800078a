package catalog

import (
	"context"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

// Repository reads catalog records. Finders return (nil, nil) when the record does not exist.
type Repository interface {
	FindStore(ctx context.Context, id string) (*model.Store, error)
	FindAisle(ctx context.Context, id string) (*model.Aisle, error)
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	ListAisles(ctx context.Context, storeID string) ([]model.Aisle, error)

	// Active products with their category and nutrient sets
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListNutrients(ctx context.Context) ([]model.NutrientType, error)
}
