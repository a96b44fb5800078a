package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/catalog"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const snapshotCacheKey = "catalog:snapshot"

// Cache is the subset of the Redis client used for the snapshot cache.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type catalogUseCase struct {
	repo   catalog.Repository
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group // Prevents cache stampede
	logger logger.ZapLogger
}

// NewCatalogUseCase accepts a nil cache, in which case every snapshot is read from the repository.
func NewCatalogUseCase(repo catalog.Repository, cache Cache, ttl time.Duration, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

func (uc *catalogUseCase) GetStore(ctx context.Context, id string) (*model.Store, error) {
	s, err := uc.repo.FindStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || !s.IsActive {
		return nil, apperr.NotFound("store", id)
	}
	return s, nil
}

func (uc *catalogUseCase) GetAisle(ctx context.Context, id string) (*model.Aisle, error) {
	a, err := uc.repo.FindAisle(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("aisle", id)
	}
	return a, nil
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", id)
	}
	return p, nil
}

func (uc *catalogUseCase) ListAisles(ctx context.Context, storeID string) ([]model.Aisle, error) {
	return uc.repo.ListAisles(ctx, storeID)
}

func (uc *catalogUseCase) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	if uc.cache != nil {
		var cached catalog.Snapshot
		found, err := uc.cache.GetJSON(ctx, snapshotCacheKey, &cached)
		if err != nil {
			// Continue to database on cache error
			uc.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := uc.group.Do(snapshotCacheKey, func() (any, error) {
		return uc.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return val.(*catalog.Snapshot), nil
}

func (uc *catalogUseCase) load(ctx context.Context) (*catalog.Snapshot, error) {
	products, err := uc.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := uc.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	nutrients, err := uc.repo.ListNutrients(ctx)
	if err != nil {
		return nil, err
	}

	snap := catalog.NewSnapshot(products, categories, nutrients)
	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, snapshotCacheKey, snap, uc.ttl); err != nil {
			uc.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return snap, nil
}

func (uc *catalogUseCase) Invalidate(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.Delete(ctx, snapshotCacheKey)
}
