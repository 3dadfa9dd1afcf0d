package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"ecommerce-dashboard/internal/observability"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[ErrorCode]int{
	CodeInternal:       http.StatusInternalServerError,
	CodeValidation:     http.StatusBadRequest,
	CodeNotFound:       http.StatusNotFound,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
}

// AppError is the error body returned to API clients. Cause is logged but
// never serialised.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Render implements render.Renderer.
func (e *AppError) Render(w http.ResponseWriter, r *http.Request) error {
	e.RequestID = observability.GetRequestID(r.Context())
	render.Status(r, e.StatusCode)
	return nil
}

func New(code ErrorCode, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
	}
}

// Wrap attaches err as the cause. Client errors also expose the cause's
// text as Details so callers can see what was rejected.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	if err != nil && appErr.StatusCode < http.StatusInternalServerError {
		appErr.Details = err.Error()
	}
	return appErr
}

func Validation(err error, message string) *AppError {
	return Wrap(err, CodeValidation, message)
}

func Internal(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

// From converts any error into an AppError. Context cancellation means the
// client went away or the deadline passed; anything unrecognised is internal
// and keeps its text out of the response.
func From(err error) *AppError {
	var appErr *AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(err, CodeServiceUnavail, "Request was interrupted")
	default:
		return Internal(err, "An unexpected error occurred")
	}
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

func (*ErrorResponse) Render(http.ResponseWriter, *http.Request) error { return nil }

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func (*SuccessResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusOK)
	return nil
}

// WriteError renders err as a JSON error envelope and logs it, at warn level
// for client errors and error level otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	appErr := From(err)

	if rerr := render.Render(w, r, &ErrorResponse{Error: appErr}); rerr != nil {
		http.Error(w, http.StatusText(appErr.StatusCode), appErr.StatusCode)
	}

	level := slog.LevelError
	if appErr.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"path", r.URL.Path,
		"cause", appErr.Cause,
	)
}

func WriteSuccess(w http.ResponseWriter, r *http.Request, data any) {
	_ = render.Render(w, r, &SuccessResponse{Data: data, Success: true})
}

func WriteSuccessWithHeaders(w http.ResponseWriter, r *http.Request, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, r, data)
}
