package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error codes rendered in the "code" field of error responses.
const (
	CodeTokenRequired           = "TOKEN_REQUIRED"
	CodeInvalidTokenFormat      = "INVALID_TOKEN_FORMAT"
	CodeTokenMismatch           = "TOKEN_MISMATCH"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeAuthenticationFailed    = "AUTHENTICATION_FAILED"
	CodeAuthenticationRequired  = "AUTHENTICATION_REQUIRED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeInvalidRefreshToken     = "INVALID_REFRESH_TOKEN"

	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// WithCause attaches the underlying error for server-side logging. The cause is never rendered.
func (e *DomainError) WithCause(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

func NewTokenRequired() *DomainError {
	return NewDomainError(CodeTokenRequired, "Access token required", http.StatusUnauthorized, nil)
}

func NewInvalidTokenFormat() *DomainError {
	return NewDomainError(CodeInvalidTokenFormat, "Invalid token format", http.StatusUnauthorized, nil)
}

func NewTokenMismatch() *DomainError {
	return NewDomainError(CodeTokenMismatch, "Token mismatch", http.StatusUnauthorized, nil)
}

func NewInvalidToken() *DomainError {
	return NewDomainError(CodeInvalidToken, "Invalid token", http.StatusUnauthorized, nil)
}

func NewTokenExpired() *DomainError {
	return NewDomainError(CodeTokenExpired, "Token expired", http.StatusUnauthorized, nil)
}

func NewAuthenticationFailed() *DomainError {
	return NewDomainError(CodeAuthenticationFailed, "Authentication failed", http.StatusUnauthorized, nil)
}

func NewAuthenticationRequired() *DomainError {
	return NewDomainError(CodeAuthenticationRequired, "Authentication required", http.StatusUnauthorized, nil)
}

func NewInsufficientPermissions() *DomainError {
	return NewDomainError(CodeInsufficientPermissions, "Insufficient permissions", http.StatusForbidden, nil)
}

func NewInvalidRefreshToken() *DomainError {
	return NewDomainError(CodeInvalidRefreshToken, "Invalid refresh token", http.StatusUnauthorized, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeAuthenticationRequired
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return http.StatusText(status)
}
