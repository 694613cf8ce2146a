// Package mailer holds the outgoing email shim. No message leaves the
// process: MockMailer logs the envelope and keeps a copy in memory.
package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

type MockMailer struct {
	mu     sync.Mutex
	sent   []domain.Email
	logger *zap.Logger
}

func NewMockMailer(logger *zap.Logger) *MockMailer {
	return &MockMailer{logger: logger}
}

func (m *MockMailer) Send(ctx context.Context, email domain.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.sent = append(m.sent, email)
	m.mu.Unlock()

	m.logger.Info("email sent (mock)",
		zap.String("to", email.To),
		zap.String("reply_to", email.ReplyTo),
		zap.String("subject", email.Subject),
		zap.Int("body_bytes", len(email.Body)),
	)
	return nil
}

// Sent returns a copy of every email accepted so far.
func (m *MockMailer) Sent() []domain.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Email, len(m.sent))
	copy(out, m.sent)
	return out
}
