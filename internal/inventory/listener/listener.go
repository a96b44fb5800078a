package listener

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fekuna/omnipos-aisle-service/internal/inventory"
	"github.com/fekuna/omnipos-aisle-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// CatalogInvalidator drops the cached catalog snapshot.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type OrderListener struct {
	consumer MessageReader
	uc       inventory.UseCase
	catalog  CatalogInvalidator
	logger   logger.ZapLogger
}

// NewOrderListener accepts a nil catalog, in which case catalog change events are ignored.
func NewOrderListener(consumer MessageReader, uc inventory.UseCase, catalog CatalogInvalidator, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		catalog:  catalog,
		logger:   logger,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting Order Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Order Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type Event struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID      string             `json:"id"`
	StoreID string             `json:"store_id"`
	Items   []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if isCatalogEvent(event.EventType) {
		l.invalidateCatalog(ctx, event)
		return
	}
	if event.EventType != "OrderCreated" {
		return
	}

	l.logger.Info("Processing OrderCreated event",
		zap.String("order_id", event.Payload.ID),
		zap.String("store_id", event.Payload.StoreID),
	)

	for _, item := range event.Payload.Items {
		// Shelf stock is counted in whole units
		qty := int(item.Quantity)
		if qty <= 0 {
			l.logger.Warn("Skipping order item without whole units",
				zap.String("order_id", event.Payload.ID),
				zap.String("product_id", item.ProductID),
				zap.Float64("quantity", item.Quantity),
			)
			continue
		}

		_, err := l.uc.RecordSale(ctx, &dto.SaleInput{
			StoreID:   event.Payload.StoreID,
			ProductID: item.ProductID,
			Quantity:  qty,
			Reference: event.Payload.ID,
		})
		if err != nil {
			l.logger.Error("Failed to record sale for order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}
}

// Product and category changes published by the catalog service.
func isCatalogEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "Product") || strings.HasPrefix(eventType, "Category")
}

func (l *OrderListener) invalidateCatalog(ctx context.Context, event Event) {
	if l.catalog == nil {
		return
	}
	if err := l.catalog.Invalidate(ctx); err != nil {
		l.logger.Error("Failed to invalidate catalog cache", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	l.logger.Debug("Catalog cache invalidated", zap.String("event_type", event.EventType))
}
