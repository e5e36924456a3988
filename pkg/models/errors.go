package models

import (
	"errors"
	"fmt"
)

// Error classes surfaced to API clients. Every error returned by the service
// layer wraps exactly one of these so handlers can pick a status code with
// errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Conflict specialisations.
var (
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)
	ErrStatusChanged     = fmt.Errorf("%w: order status changed concurrently", ErrConflict)
	ErrTrackingActive    = fmt.Errorf("%w: order already has an active tracking entry", ErrConflict)
	ErrTrackingNotActive = fmt.Errorf("%w: tracking entry is not active", ErrConflict)
	ErrOrderNotRunning   = fmt.Errorf("%w: order is not em_andamento", ErrConflict)
	ErrOrderFinished     = fmt.Errorf("%w: order is finalizado", ErrConflict)
)

// Validationf builds a validation error with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error with a formatted detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
