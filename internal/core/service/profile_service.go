package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// ProfileService bootstraps a default profile for newly created customers.
type ProfileService struct {
	customers port.CustomerRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewProfileService(customers port.CustomerRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{customers: customers, logger: logger, now: time.Now}
}

// OnCustomerCreated returns true when a new profile was written and false
// when the customer already had one.
func (s *ProfileService) OnCustomerCreated(ctx context.Context, customer domain.Customer) (bool, error) {
	if customer.ID == "" {
		return false, domain.ErrInvalidCustomer
	}

	profile := domain.CustomerProfile{
		CustomerID:     customer.ID,
		DisplayName:    domain.DefaultDisplayName(customer),
		Email:          customer.Email,
		MarketingOptIn: false,
		Preferences:    map[string]string{},
		CreatedAt:      s.now(),
	}

	created, err := s.customers.CreateProfileIfAbsent(ctx, profile)
	if err != nil {
		return false, fmt.Errorf("create profile for customer %s: %w", customer.ID, err)
	}

	if created {
		s.logger.Info("customer profile created", zap.String("customer_id", customer.ID))
	} else {
		s.logger.Debug("customer profile already exists", zap.String("customer_id", customer.ID))
	}
	return created, nil
}
