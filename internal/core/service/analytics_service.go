package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// AnalyticsService keeps per-customer order totals up to date.
type AnalyticsService struct {
	customers port.CustomerRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewAnalyticsService(customers port.CustomerRepository, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{customers: customers, logger: logger, now: time.Now}
}

func (s *AnalyticsService) OnOrderCreated(ctx context.Context, order domain.Order) error {
	if err := domain.ValidateOrder(order); err != nil {
		return err
	}
	if order.CustomerID == "" {
		return domain.ErrInvalidCustomer
	}

	at := order.CreatedAt
	if at.IsZero() {
		at = s.now()
	}

	if err := s.customers.RecordOrder(ctx, order.CustomerID, order.Total, at); err != nil {
		return fmt.Errorf("record order %s for customer %s: %w", order.ID, order.CustomerID, err)
	}

	s.logger.Debug("customer stats updated",
		zap.String("customer_id", order.CustomerID),
		zap.String("order_id", order.ID),
		zap.Float64("total", order.Total),
	)
	return nil
}
