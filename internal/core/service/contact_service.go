package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type ContactService struct {
	repo   port.ContactRepository
	mailer port.Mailer
	inbox  string
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewContactService stores submitted forms and notifies inbox.
func NewContactService(repo port.ContactRepository, mailer port.Mailer, inbox string, logger *zap.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		mailer: mailer,
		inbox:  inbox,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Submit persists the form. A failed notification is logged only; the
// message is already stored at that point.
func (s *ContactService) Submit(ctx context.Context, form domain.ContactForm) (*domain.ContactMessage, error) {
	if err := domain.ValidateContactForm(form); err != nil {
		return nil, err
	}

	msg := domain.ContactMessage{
		ID:        s.newID(),
		Form:      form,
		CreatedAt: s.now(),
	}

	if err := s.repo.SaveContactMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save contact message: %w", err)
	}

	email := domain.Email{
		To:      s.inbox,
		ReplyTo: form.Email,
		Subject: "[contact] " + form.Subject,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", form.Name, form.Email, form.Message),
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		s.logger.Warn("contact notification failed", zap.String("message_id", msg.ID), zap.Error(err))
	}

	s.logger.Info("contact message received", zap.String("message_id", msg.ID))
	return &msg, nil
}
