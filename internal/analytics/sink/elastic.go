package sink

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
)

// Indexer is satisfied by search.Client from pkg/search.
type Indexer interface {
	Index(ctx context.Context, index, id string, doc any) error
}

// Mapping is applied when the search log index is first created.
const Mapping = `{
  "mappings": {
    "properties": {
      "store_id":     {"type": "keyword"},
      "query":        {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "mode":         {"type": "keyword"},
      "result_count": {"type": "integer"},
      "fulfilled":    {"type": "boolean"},
      "created_at":   {"type": "date"}
    }
  }
}`

type document struct {
	StoreID     string           `json:"store_id"`
	Query       string           `json:"query"`
	Mode        model.SearchMode `json:"mode"`
	ResultCount int              `json:"result_count"`
	Fulfilled   bool             `json:"fulfilled"`
	CreatedAt   string           `json:"created_at"`
}

type ElasticSink struct {
	client Indexer
	index  string
}

func NewElasticSink(client Indexer, index string) *ElasticSink {
	return &ElasticSink{client: client, index: index}
}

func (s *ElasticSink) Index(ctx context.Context, entry model.SearchLogEntry) error {
	return s.client.Index(ctx, s.index, entry.ID, document{
		StoreID:     entry.StoreID,
		Query:       entry.Query,
		Mode:        entry.Mode,
		ResultCount: entry.ResultCount,
		Fulfilled:   !entry.Unfulfilled(),
		CreatedAt:   entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}
