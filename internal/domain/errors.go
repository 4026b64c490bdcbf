package domain

import "errors"

// Sentinel errors shared across services. The delivery layer maps these to
// HTTP status codes; anything else is treated as an infrastructure failure.
var (
	ErrNotFound               = errors.New("not found")
	ErrCapacityExceeded       = errors.New("event is at capacity")
	ErrAlreadyReserved        = errors.New("user already holds a confirmed reservation for this event")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrReconciliationRequired = errors.New("attendee count out of sync, reconciliation pending")
	ErrDuplicateEmail         = errors.New("email already in use")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)
