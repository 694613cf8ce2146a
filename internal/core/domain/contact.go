package domain

import (
	"strings"
	"time"
)

const MaxContactMessageLength = 5000

type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactMessage struct {
	ID        string
	Form      ContactForm
	CreatedAt time.Time
}

type Email struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

func ValidateContactForm(f ContactForm) error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrContactNameRequired
	}
	if !strings.Contains(f.Email, "@") {
		return ErrContactEmailInvalid
	}
	if strings.TrimSpace(f.Subject) == "" {
		return ErrContactSubjectRequired
	}
	if strings.TrimSpace(f.Message) == "" {
		return ErrContactMessageRequired
	}
	if len(f.Message) > MaxContactMessageLength {
		return ErrContactMessageTooLong
	}
	return nil
}
