// Package errors holds the error taxonomy shared by the repositories, services and the
// HTTP layer. Callers compare with errors.Is against the sentinels below.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every input validation failure (bad URL, bad slug, weak password...).
var ErrValidation = errors.New("validation failed")

// ErrDuplicate is returned when a username, email, code or custom slug is already taken.
var ErrDuplicate = errors.New("already exists")

// ErrAuthentication is returned for a missing, malformed, expired or revoked token.
var ErrAuthentication = errors.New("authentication failed")

// ErrInvalidCredentials is returned by login for an unknown user or a wrong password.
// It matches ErrAuthentication.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrAuthentication)

// ErrTokenRevoked is returned when a token was explicitly invalidated by logout.
var ErrTokenRevoked = fmt.Errorf("token has been invalidated: %w", ErrAuthentication)

// ErrNotFound is returned when a short code or user doesn't exist.
var ErrNotFound = errors.New("not found")

// ErrRateLimited is returned when a client exceeded its request window.
var ErrRateLimited = errors.New("rate limited")

// ErrShortCodeGenerationFailed is returned when we can't generate a unique short code
var ErrShortCodeGenerationFailed = errors.New("failed to generate unique short code")

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors aggregates field errors for a single request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shortcut for a single-field validation failure.
func NewValidationError(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// Fields extracts the field errors carried by err, if any.
func Fields(err error) []ValidationError {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many
	}
	var one ValidationError
	if errors.As(err, &one) {
		return []ValidationError{one}
	}
	return nil
}

// ErrClickRecordingFailed is returned when click recording fails
type ErrClickRecordingFailed struct {
	LinkID uint
	Reason string
}

func (e ErrClickRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record click for link %d: %s", e.LinkID, e.Reason)
}

// ErrConfigLoad is returned when configuration loading fails
type ErrConfigLoad struct {
	Key    string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Key, e.Reason)
}
