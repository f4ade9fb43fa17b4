package domain

import (
	"errors"
	"fmt"
)

// Validation failures (400).
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrMissingCredentials = errors.New("missing email or password")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password does not meet strength policy")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidID          = errors.New("invalid id format")
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUnknownKind        = errors.New("unknown account kind")
	ErrUnauthorized       = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotAdmin           = fmt.Errorf("%w: admin role required", ErrForbidden)
)

// KindError ties a domain error to the account kind it was raised for, so the
// transport layer can answer "User not found" or "Admin not found".
type KindError struct {
	Kind Kind
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *KindError) Unwrap() error { return e.Err }

// ForKind wraps err with kind. A nil err stays nil.
func ForKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// KindOf extracts the kind attached by ForKind, defaulting to KindUser.
func KindOf(err error) Kind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUser
}
