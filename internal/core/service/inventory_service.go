package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const DefaultLowStockThreshold = 5

// InventoryService reflects a newly created order against product stock.
//
// Stock is read before the batch commits and no isolation is taken across
// invocations: two orders for the same variant processed concurrently can
// both decrement from the same value and one update is lost.
type InventoryService struct {
	store     port.DocumentStore
	metrics   port.InventoryMetrics
	tracer    port.Tracer
	logger    *zap.Logger
	threshold int
}

func NewInventoryService(store port.DocumentStore, metrics port.InventoryMetrics, tracer port.Tracer, logger *zap.Logger, lowStockThreshold int) *InventoryService {
	return &InventoryService{
		store:     store,
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
		threshold: lowStockThreshold,
	}
}

func (s *InventoryService) OnOrderCreated(ctx context.Context, order domain.Order) (*domain.AdjustmentReport, error) {
	if err := domain.ValidateOrder(order); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "inventory.adjust")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
	)

	report := &domain.AdjustmentReport{OrderID: order.ID}
	var batch domain.Batch
	products := make(map[string]*domain.Product)

	for _, item := range order.Items {
		product, err := s.loadProduct(ctx, products, item.ProductID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "product read failed")
			return nil, err
		}

		result := s.applyItem(&batch, product, item)
		report.Items = append(report.Items, result)
		s.metrics.ObserveItem(result.Outcome)

		if result.Outcome != domain.OutcomeApplied {
			s.logger.Debug("skipping order item",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.String("variant_id", item.VariantID),
				zap.String("outcome", string(result.Outcome)),
			)
			continue
		}

		if result.NewStock > 0 && result.NewStock <= s.threshold {
			signal := domain.LowStockSignal{
				ProductID:    product.ID,
				ProductTitle: product.Title,
				VariantID:    item.VariantID,
				Remaining:    result.NewStock,
			}
			report.LowStock = append(report.LowStock, signal)
			s.logger.Warn("low stock",
				zap.String("product_id", signal.ProductID),
				zap.String("title", signal.ProductTitle),
				zap.String("variant_id", signal.VariantID),
				zap.Int("remaining", signal.Remaining),
			)
		}
	}

	if batch.Empty() {
		span.SetAttributes(attribute.Bool("inventory.committed", false))
		return report, nil
	}

	err := s.store.CommitBatch(ctx, batch)
	s.metrics.ObserveCommit(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch commit failed")
		return nil, fmt.Errorf("commit inventory batch for order %s: %w", order.ID, err)
	}

	report.Committed = true
	span.SetAttributes(
		attribute.Bool("inventory.committed", true),
		attribute.Int("inventory.applied", report.Count(domain.OutcomeApplied)),
		attribute.Int("inventory.low_stock", len(report.LowStock)),
	)
	span.SetStatus(codes.Ok, "inventory adjusted")

	s.logger.Info("inventory adjusted",
		zap.String("order_id", order.ID),
		zap.Int("applied", report.Count(domain.OutcomeApplied)),
		zap.Int("skipped", len(report.Items)-report.Count(domain.OutcomeApplied)),
	)

	return report, nil
}

// loadProduct reads each product at most once per invocation. A nil entry
// records a product known to be missing.
func (s *InventoryService) loadProduct(ctx context.Context, cache map[string]*domain.Product, productID string) (*domain.Product, error) {
	if p, ok := cache[productID]; ok {
		return p, nil
	}
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("read product %s: %w", productID, err)
	}
	cache[productID] = p
	return p, nil
}

func (s *InventoryService) applyItem(batch *domain.Batch, product *domain.Product, item domain.LineItem) domain.ItemResult {
	if product == nil {
		return domain.ItemResult{Item: item, Outcome: domain.OutcomeSkippedMissingProduct}
	}

	idx := product.VariantIndex(item.VariantID)
	if idx < 0 {
		return domain.ItemResult{Item: item, Outcome: domain.OutcomeSkippedMissingVariant}
	}

	variants, ok := batch.Staged(product.ID)
	if !ok {
		variants = product.CloneVariants()
	}

	newStock := max(0, variants[idx].StockQuantity-item.Quantity)
	variants[idx].StockQuantity = newStock
	batch.Stage(product.ID, variants)

	return domain.ItemResult{Item: item, Outcome: domain.OutcomeApplied, NewStock: newStock}
}
