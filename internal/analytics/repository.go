package analytics

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, entry model.SearchLogEntry) error
	ListSince(ctx context.Context, storeID string, since time.Time) ([]model.SearchLogEntry, error)
}

// Sink receives a copy of every recorded search for external analytics.
type Sink interface {
	Index(ctx context.Context, entry model.SearchLogEntry) error
}
