package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}
