package catalog

import (
	"context"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

type UseCase interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	GetAisle(ctx context.Context, id string) (*model.Aisle, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListAisles(ctx context.Context, storeID string) ([]model.Aisle, error)

	Snapshot(ctx context.Context) (*Snapshot, error)
	Invalidate(ctx context.Context) error
}
