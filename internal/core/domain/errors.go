package domain

import "errors"

var (
	ErrInvalidOrder    = errors.New("order id is required")
	ErrInvalidCustomer = errors.New("customer id is required")

	ErrInstallFailed = errors.New("cache install failed")

	ErrContactNameRequired    = errors.New("name is required")
	ErrContactEmailInvalid    = errors.New("email is invalid")
	ErrContactSubjectRequired = errors.New("subject is required")
	ErrContactMessageRequired = errors.New("message is required")
	ErrContactMessageTooLong  = errors.New("message is too long")
)
