package utils

import "errors"

// Common application errors used across services.
var (
	ErrNotFound           = errors.New("NOT_FOUND")
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrInvalidStatus      = errors.New("INVALID_STATUS")
	ErrAlreadyResolved    = errors.New("ALREADY_RESOLVED")
	ErrShopRequired       = errors.New("SHOP_REQUIRED")
	ErrShopExists         = errors.New("SHOP_EXISTS")
	ErrEmailTaken         = errors.New("EMAIL_TAKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrSessionNotFound    = errors.New("SESSION_NOT_FOUND")
	ErrSessionClosed      = errors.New("SESSION_CLOSED")
)
