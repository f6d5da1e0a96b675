package service

import (
	"errors"
	"fmt"
)

// Sentinels let callers classify failures with errors.Is; the typed errors
// below wrap them and carry detail for errors.As.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrIneligibleDonor    = errors.New("donor is not eligible")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrConflict           = errors.New("conflict")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrSignupDisabled     = errors.New("signup disabled")
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError is returned when a removal exceeds availability.
type InsufficientStockError struct {
	BloodGroup string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.BloodGroup, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IneligibleDonorError rejects a donation from an ineligible donor.
type IneligibleDonorError struct {
	DonorID string
}

func (e *IneligibleDonorError) Error() string {
	return fmt.Sprintf("donor %s is not eligible to donate", e.DonorID)
}

func (e *IneligibleDonorError) Unwrap() error { return ErrIneligibleDonor }

// ConflictError reports a uniqueness violation on a user-chosen field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already in use", e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// TransitionError rejects a blood request status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move request from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// storeError marks an unexpected persistence failure. The cause is kept for
// logs; Error() still carries it so logrus.WithError shows the driver text.
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storeError) Unwrap() []error { return []error{ErrStoreUnavailable, e.err} }

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storeError{op: op, err: err}
}
