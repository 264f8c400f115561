package services

import (
	"errors"
	"fmt"
)

var (
	// Authentication
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Conflict
	ErrEmailTaken = errors.New("email already registered")

	// Not found
	ErrUserNotFound        = errors.New("user not found")
	ErrEntitlementNotFound = errors.New("entitlement not found")
	ErrNoBillingCustomer   = errors.New("no billing customer linked to this account")

	// Validation
	ErrValidation = errors.New("validation failed")

	// Billing
	ErrSignature        = errors.New("webhook signature verification failed")
	ErrUnresolvableUser = errors.New("event does not reference a known user")
	ErrBillingDisabled  = errors.New("billing is not configured")
	ErrUnknownPlan      = errors.New("unknown plan")

	// External
	ErrExternalService = errors.New("external service failure")
)

// ValidationError names the offending field; it matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
