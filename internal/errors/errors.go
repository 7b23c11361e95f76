package errors

import (
	"errors"
	"fmt"
)

// Common error types for the shop client
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrRenewalFailed    = errors.New("token renewal failed")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Transport errors
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// Collection errors
	ErrMergeIncomplete = errors.New("merge incomplete")
	ErrInvalidItem     = errors.New("invalid item")

	// Passkey ceremony errors
	ErrCeremonyFailed = errors.New("passkey ceremony failed")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return errors.Join(errs...)
}
