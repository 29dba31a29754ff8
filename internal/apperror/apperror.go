// Package apperror defines the tagged errors the service layer returns and
// the HTTP layer maps to status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Services wrap these via the constructors below; callers
// classify with errors.Is and never match on message text.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrExternalAuth        = errors.New("external verification failed")
)

type AppError struct {
	Err     error  // sentinel for errors.Is classification
	Message string // human-readable, safe to return to clients
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// InvalidCredentials is returned for both "unknown username" and "wrong
// password". The message is deliberately identical in both cases so the API
// cannot be used to enumerate accounts.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid username or password",
	}
}

func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("username %q is already taken", username),
		Field:   "username",
	}
}

func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("email %q is already registered", email),
		Field:   "email",
	}
}

func InvalidRefreshToken() *AppError {
	return &AppError{
		Err:     ErrInvalidRefreshToken,
		Message: "refresh token is invalid or expired",
	}
}

// ExternalAuth covers every Google-side failure: bad or expired credential,
// wrong audience, or no email in the verified payload.
func ExternalAuth(message string) *AppError {
	return &AppError{
		Err:     ErrExternalAuth,
		Message: message,
	}
}
