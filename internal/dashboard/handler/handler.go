package handler

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/auth"
	"github.com/fekuna/omnipos-aisle-service/internal/dashboard"
	"github.com/fekuna/omnipos-aisle-service/internal/transport"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"github.com/fekuna/omnipos-aisle-service/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const serviceName = "omnipos.aisle.v1.DashboardService"

type DashboardServer interface {
	GetDashboard(ctx context.Context, req *DashboardRequest) (*dashboard.View, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(serviceName, "GetDashboard", DashboardServer.GetDashboard),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/aisle/v1/dashboard.json",
}

type DashboardRequest struct {
	StoreID string `json:"store_id" validate:"required"`
}

type DashboardHandler struct {
	aggregator *dashboard.Aggregator
	clock      func() time.Time
	logger     logger.ZapLogger
}

func NewDashboardHandler(aggregator *dashboard.Aggregator, log logger.ZapLogger) *DashboardHandler {
	return &DashboardHandler{
		aggregator: aggregator,
		clock:      time.Now,
		logger:     log,
	}
}

// GetDashboard answers with whatever sections could be built; missing ones are listed as unavailable.
func (h *DashboardHandler) GetDashboard(ctx context.Context, req *DashboardRequest) (*dashboard.View, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}
	if err := transport.RequireRole(ctx, req.StoreID, auth.RoleAdmin, auth.RoleStaff); err != nil {
		return nil, err
	}

	view, err := h.aggregator.Build(ctx, req.StoreID, h.clock())
	if err != nil {
		var partial *apperr.PartialAggregationError
		if !errors.As(err, &partial) {
			return nil, transport.Status(ctx, h.logger, err)
		}
		h.logger.Warn("dashboard built with missing sections",
			zap.String("store_id", req.StoreID),
			zap.Strings("sections", partial.Sections()),
			zap.Error(err),
		)
	}
	return view, nil
}
