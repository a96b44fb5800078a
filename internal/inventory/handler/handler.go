package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/auth"
	"github.com/fekuna/omnipos-aisle-service/internal/freshness"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/ledger"
	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/fekuna/omnipos-aisle-service/internal/transport"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"github.com/fekuna/omnipos-aisle-service/pkg/rpc"
	"google.golang.org/grpc"
)

const dateLayout = "2006-01-02"

const serviceName = "omnipos.aisle.v1.InventoryService"

type InventoryServer interface {
	AdmitStock(ctx context.Context, req *AdmitStockRequest) (*BatchResponse, error)
	AdjustStock(ctx context.Context, req *AdjustStockRequest) (*BatchResponse, error)
	ListStock(ctx context.Context, req *ListStockRequest) (*ListStockResponse, error)
	ListAlerts(ctx context.Context, req *StoreRequest) (*ledger.Alerts, error)
	ListMovements(ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error)
	ListAisles(ctx context.Context, req *StoreRequest) (*ListAislesResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(serviceName, "AdmitStock", InventoryServer.AdmitStock),
		rpc.Unary(serviceName, "AdjustStock", InventoryServer.AdjustStock),
		rpc.Unary(serviceName, "ListStock", InventoryServer.ListStock),
		rpc.Unary(serviceName, "ListAlerts", InventoryServer.ListAlerts),
		rpc.Unary(serviceName, "ListMovements", InventoryServer.ListMovements),
		rpc.Unary(serviceName, "ListAisles", InventoryServer.ListAisles),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/aisle/v1/inventory.json",
}

type StoreRequest struct {
	StoreID string `json:"store_id" validate:"required"`
}

type AdmitStockRequest struct {
	StoreID     string `json:"store_id" validate:"required"`
	ProductID   string `json:"product_id" validate:"required"`
	AisleID     string `json:"aisle_id" validate:"required"`
	Quantity    int    `json:"quantity"`
	ExpiryDate  string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	BatchNumber string `json:"batch_number" validate:"max=64"`
}

type AdjustStockRequest struct {
	StoreID string `json:"store_id" validate:"required"`
	BatchID string `json:"batch_id" validate:"required"`
	Delta   int    `json:"delta"`
	Reason  string `json:"reason" validate:"max=255"`
}

type ListStockRequest struct {
	StoreID         string `json:"store_id" validate:"required"`
	ProductID       string `json:"product_id"`
	AisleID         string `json:"aisle_id"`
	Status          string `json:"status" validate:"omitempty,oneof=safe expiring expired"`
	SortByExpiry    bool   `json:"sort_by_expiry"`
	IncludeDepleted bool   `json:"include_depleted"`
}

type ListMovementsRequest struct {
	StoreID      string `json:"store_id" validate:"required"`
	ProductID    string `json:"product_id"`
	BatchID      string `json:"batch_id"`
	MovementType string `json:"movement_type" validate:"omitempty,oneof=admission adjustment sale"`
	Page         int    `json:"page" validate:"gte=0"`
	PageSize     int    `json:"page_size" validate:"gte=0,lte=200"`
}

type BatchResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	Product     string  `json:"product"`
	SKU         string  `json:"sku"`
	AisleID     string  `json:"aisle_id"`
	Aisle       string  `json:"aisle"`
	Quantity    int     `json:"quantity"`
	ExpiryDate  *string `json:"expiry_date"`
	BatchNumber string  `json:"batch_number,omitempty"`
	StockedOn   string  `json:"stocked_on"`

	*freshness.Classification
}

type ListStockResponse struct {
	Items []*BatchResponse `json:"items"`
	Total int              `json:"total"`
}

type ListMovementsResponse struct {
	Movements []model.StockMovement `json:"movements"`
	Total     int                   `json:"total"`
}

type AisleResponse struct {
	ID                string   `json:"id"`
	Number            int      `json:"number"`
	Name              string   `json:"name"`
	Label             string   `json:"label"`
	AllowedCategories []string `json:"allowed_categories"`
	ProductCount      int      `json:"product_count"`
	TotalItems        int      `json:"total_items"`
}

type ListAislesResponse struct {
	Aisles []AisleResponse `json:"aisles"`
}

type InventoryHandler struct {
	uc         inventory.UseCase
	alertLimit int
	logger     logger.ZapLogger
}

// NewInventoryHandler caps each alert list at alertLimit items; zero leaves them complete.
func NewInventoryHandler(uc inventory.UseCase, alertLimit int, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:         uc,
		alertLimit: alertLimit,
		logger:     log,
	}
}

func (h *InventoryHandler) AdmitStock(ctx context.Context, req *AdmitStockRequest) (*BatchResponse, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}
	if err := transport.RequireRole(ctx, req.StoreID, auth.RoleAdmin, auth.RoleStaff); err != nil {
		return nil, err
	}

	var expiry *time.Time
	if req.ExpiryDate != "" {
		// Already validated against dateLayout
		t, _ := time.Parse(dateLayout, req.ExpiryDate)
		expiry = &t
	}

	batch, err := h.uc.AdmitStock(ctx, &dto.AdmitStockInput{
		StoreID:     req.StoreID,
		ProductID:   req.ProductID,
		AisleID:     req.AisleID,
		Quantity:    req.Quantity,
		ExpiryDate:  expiry,
		BatchNumber: req.BatchNumber,
		UserID:      auth.GetUser(ctx).UserID,
	})
	if err != nil {
		return nil, transport.Status(ctx, h.logger, err)
	}
	return mapBatch(batch, nil), nil
}

func (h *InventoryHandler) AdjustStock(ctx context.Context, req *AdjustStockRequest) (*BatchResponse, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}
	if err := transport.RequireRole(ctx, req.StoreID, auth.RoleAdmin, auth.RoleStaff); err != nil {
		return nil, err
	}

	batch, err := h.uc.AdjustStock(ctx, &dto.AdjustStockInput{
		StoreID: req.StoreID,
		BatchID: req.BatchID,
		Delta:   req.Delta,
		Reason:  req.Reason,
		UserID:  auth.GetUser(ctx).UserID,
	})
	if err != nil {
		return nil, transport.Status(ctx, h.logger, err)
	}
	return mapBatch(batch, nil), nil
}

func (h *InventoryHandler) ListStock(ctx context.Context, req *ListStockRequest) (*ListStockResponse, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}

	entries, err := h.uc.ListStock(ctx, &dto.StockFilters{
		StoreID:         req.StoreID,
		ProductID:       req.ProductID,
		AisleID:         req.AisleID,
		Status:          req.Status,
		SortByExpiry:    req.SortByExpiry,
		IncludeDepleted: req.IncludeDepleted,
	})
	if err != nil {
		return nil, transport.Status(ctx, h.logger, err)
	}

	items := make([]*BatchResponse, len(entries))
	for i := range entries {
		items[i] = mapBatch(&entries[i].Batch, &entries[i].Classification)
	}
	return &ListStockResponse{Items: items, Total: len(items)}, nil
}

func (h *InventoryHandler) ListAlerts(ctx context.Context, req *StoreRequest) (*ledger.Alerts, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}

	alerts, err := h.uc.Alerts(ctx, req.StoreID)
	if err != nil {
		return nil, transport.Status(ctx, h.logger, err)
	}
	capped := alerts.Capped(h.alertLimit)
	return &capped, nil
}

func (h *InventoryHandler) ListMovements(ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}
	if err := transport.RequireRole(ctx, req.StoreID, auth.RoleAdmin, auth.RoleStaff); err != nil {
		return nil, err
	}

	movements, total, err := h.uc.ListMovements(ctx, &dto.MovementFilters{
		StoreID:      req.StoreID,
		ProductID:    req.ProductID,
		BatchID:      req.BatchID,
		MovementType: req.MovementType,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		return nil, transport.Status(ctx, h.logger, err)
	}
	if movements == nil {
		movements = []model.StockMovement{}
	}
	return &ListMovementsResponse{Movements: movements, Total: total}, nil
}

func (h *InventoryHandler) ListAisles(ctx context.Context, req *StoreRequest) (*ListAislesResponse, error) {
	if err := transport.Validate(req); err != nil {
		return nil, err
	}

	summaries, err := h.uc.ListAisles(ctx, req.StoreID)
	if err != nil {
		return nil, transport.Status(ctx, h.logger, err)
	}

	aisles := make([]AisleResponse, len(summaries))
	for i, s := range summaries {
		aisles[i] = AisleResponse{
			ID:                s.Aisle.ID,
			Number:            s.Aisle.Number,
			Name:              s.Aisle.Name,
			Label:             s.Aisle.Descriptor(),
			AllowedCategories: s.AllowedCategories,
			ProductCount:      s.ProductCount,
			TotalItems:        s.TotalItems,
		}
	}
	return &ListAislesResponse{Aisles: aisles}, nil
}

func mapBatch(b *model.StockBatch, c *freshness.Classification) *BatchResponse {
	resp := &BatchResponse{
		ID:             b.ID,
		ProductID:      b.ProductID,
		Product:        b.ProductName,
		SKU:            b.ProductSKU,
		AisleID:        b.AisleID,
		Aisle:          b.AisleDescriptor(),
		Quantity:       b.Quantity,
		BatchNumber:    b.BatchNumber,
		StockedOn:      b.StockedOn.Format(time.RFC3339),
		Classification: c,
	}
	if b.ExpiryDate != nil {
		d := b.ExpiryDate.Format(dateLayout)
		resp.ExpiryDate = &d
	}
	return resp
}
