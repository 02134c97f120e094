// Package controller holds the HTTP response envelopes shared by every API
// handler and the mapping from domain errors to HTTP status codes.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
)

// AppError is an error with a stable code, a client-facing message and an HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Cause      error
}

// NewError creates an AppError with a stable code.
func NewError(code string, cause error) *AppError {
	return &AppError{Code: code, Cause: cause}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	label := e.Code
	if e.Message != "" {
		label = e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", label, e.Cause)
	}
	return label
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithMessage sets the client-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	e.Message = message
	return e
}

// WithHTTPStatus sets an explicit HTTP status for this error.
func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// WithDetails sets structured error details.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// ErrorResponse represents the consistent error response format.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// MapError maps an error from any layer to an HTTP status and response body.
// Unknown errors become 500 without leaking their text.
func MapError(ctx context.Context, err error) (int, ErrorResponse) {
	appErr := toAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = inferStatusFromCode(appErr.Code)
	}

	message := appErr.Message
	if message == "" {
		message = "an unexpected error occurred"
	}

	return status, ErrorResponse{
		Error:     errorCategory(status),
		Code:      appErr.Code,
		Message:   message,
		RequestID: logger.RequestIDFromContext(ctx),
		Details:   appErr.Details,
	}
}

func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var invalid *query.InvalidArgumentError
	if errors.As(err, &invalid) {
		return NewValidationError(invalid.Field, invalid.Reason, invalid.Value, err)
	}

	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		return NewError("resource.not_found", err).
			WithMessage(notFound.Error()).
			WithHTTPStatus(http.StatusNotFound).
			WithDetails(map[string]any{"entity": notFound.Entity, "id": notFound.ID})
	}

	var dup *repository.DuplicateIDError
	if errors.As(err, &dup) {
		return NewError("resource.duplicate_id", err).
			WithMessage(dup.Error()).
			WithHTTPStatus(http.StatusConflict).
			WithDetails(map[string]any{"entity": dup.Entity, "id": dup.ID})
	}

	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		details := map[string]any{"entity": conflict.Entity}
		if conflict.Field != "" {
			details["field"] = conflict.Field
		}
		return NewError("resource.conflict", err).
			WithMessage(conflict.Reason).
			WithHTTPStatus(http.StatusConflict).
			WithDetails(details)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewPayloadTooLargeError(tooLarge.Limit, err)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError("request.timeout", err).
			WithMessage("the request timed out").
			WithHTTPStatus(http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		return NewError("request.canceled", err).
			WithMessage("the request was canceled").
			WithHTTPStatus(http.StatusServiceUnavailable)
	}

	return NewError("internal.error", err).WithHTTPStatus(http.StatusInternalServerError)
}

// NewValidationError creates a 400 error for one invalid field.
func NewValidationError(field, reason string, value any, cause error) *AppError {
	details := map[string]any{"field": field, "reason": reason}
	if value != nil {
		details["value"] = value
	}
	return NewError("validation.failed", cause).
		WithMessage(fmt.Sprintf("invalid %s: %s", field, reason)).
		WithHTTPStatus(http.StatusBadRequest).
		WithDetails(details)
}

// NewBadRequestError creates a 400 error for a malformed request body or query.
func NewBadRequestError(message string, cause error) *AppError {
	return NewError("validation.malformed_request", cause).
		WithMessage(message).
		WithHTTPStatus(http.StatusBadRequest)
}

// NewPayloadTooLargeError creates a 413 error for a body larger than maxBytes.
func NewPayloadTooLargeError(maxBytes int64, cause error) *AppError {
	return NewError("request.too_large", cause).
		WithMessage(fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", maxBytes)).
		WithHTTPStatus(http.StatusRequestEntityTooLarge).
		WithDetails(map[string]any{"max_size": maxBytes})
}

// NewServiceUnavailableError creates a 503 error, used while maintenance mode is on.
func NewServiceUnavailableError(code, message string) *AppError {
	return NewError(code, nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusServiceUnavailable)
}

// NewTooManyRequestsError creates a 429 error.
func NewTooManyRequestsError(message string) *AppError {
	return NewError("rate_limit.exceeded", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusTooManyRequests)
}

func errorCategory(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		if status >= 500 {
			return "internal_server_error"
		}
		return "application_error"
	}
}

func inferStatusFromCode(code string) int {
	lowerCode := strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(lowerCode, "validation."):
		return http.StatusBadRequest
	case strings.Contains(lowerCode, "not_found"):
		return http.StatusNotFound
	case strings.Contains(lowerCode, "conflict"):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
