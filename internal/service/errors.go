package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown username or
	// a wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when a bearer token is missing, unknown
	// or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyProcessed is returned when an admin tries to move a decided
	// withdrawal to a different status.
	ErrAlreadyProcessed = errors.New("withdraw request already processed")

	// ErrInvalidStatus is returned for a status other than approved/rejected.
	ErrInvalidStatus = &ValidationError{Field: "status", Reason: "must be approved or rejected"}
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
