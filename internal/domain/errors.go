package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrCapacityExceeded   = errors.New("not enough available seats")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrInvalidTransition  = errors.New("invalid booking transition")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	ErrSessionNotFound          = errors.New("payment session not found")
	ErrAmbiguousSession         = errors.New("notification matches multiple payment sessions")
	ErrUnresolvableNotification = errors.New("notification carries no resolvable identifier")
	ErrDuplicateNotification    = errors.New("notification already processed")
)
