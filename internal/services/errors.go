package services

import "errors"

// Common service errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidState  = errors.New("invalid state transition")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	ErrInvalidPeriod = errors.New("invalid billing period")
	ErrInvalidRate   = errors.New("rate must not be negative")
)
