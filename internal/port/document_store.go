package port

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

type DocumentStore interface {
	// GetProduct returns nil, nil when the product does not exist
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// CommitBatch applies every staged patch atomically
	CommitBatch(ctx context.Context, batch domain.Batch) error
}

type CustomerRepository interface {
	// RecordOrder adds one order to the customer's running totals, creating them if needed
	RecordOrder(ctx context.Context, customerID string, total float64, at time.Time) error

	GetStats(ctx context.Context, customerID string) (*domain.CustomerStats, error)

	// CreateProfileIfAbsent returns false when a profile already existed
	CreateProfileIfAbsent(ctx context.Context, profile domain.CustomerProfile) (bool, error)
}

type ContactRepository interface {
	SaveContactMessage(ctx context.Context, msg domain.ContactMessage) error
}
