package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/fekuna/omnipos-aisle-service/internal/search"
	"github.com/fekuna/omnipos-aisle-service/internal/transport"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"github.com/fekuna/omnipos-aisle-service/pkg/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "omnipos.aisle.v1.SearchService"

type SearchServer interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SearchServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(serviceName, "Search", SearchServer.Search),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/aisle/v1/search.json",
}

type SearchRequest struct {
	StoreID string `json:"store_id" validate:"required"`
	Query   string `json:"query" validate:"max=200"`
	Mode    string `json:"mode" validate:"omitempty,oneof=all product nutrient category"`
}

type SearchResponse struct {
	Query        string               `json:"query"`
	SearchType   model.SearchMode     `json:"search_type"`
	ResultsCount int                  `json:"results_count"`
	Results      []model.SearchResult `json:"results"`
}

type SearchHandler struct {
	resolver *search.Resolver
	clock    func() time.Time
	logger   logger.ZapLogger
}

func NewSearchHandler(resolver *search.Resolver, log logger.ZapLogger) *SearchHandler {
	return &SearchHandler{
		resolver: resolver,
		clock:    time.Now,
		logger:   log,
	}
}

func (h *SearchHandler) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}
	mode, err := model.ParseSearchMode(req.Mode)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	results, err := h.resolver.Search(ctx, req.StoreID, req.Query, mode, h.clock())
	if err != nil {
		return nil, transport.Status(ctx, h.logger, err)
	}

	return &SearchResponse{
		Query:        req.Query,
		SearchType:   mode,
		ResultsCount: len(results),
		Results:      results,
	}, nil
}
