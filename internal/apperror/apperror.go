// Package apperror defines the error taxonomy shared by every layer.
//
// HOW ERRORS FLOW:
// Repositories, services and platform adapters return *AppError values that
// wrap one of the sentinels below. Callers add context with fmt.Errorf("...: %w"),
// and the HTTP layer recovers the kind with errors.Is and the human message
// with errors.As. Only the handler knows about status codes.
package apperror

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("Validation Error")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstream         = errors.New("upstream failure")
	ErrAggregateFailure = errors.New("all platforms failed")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	// Optional: structured detail for the response body (e.g. per-platform failures)
	Details any
	// Optional: how long the caller should wait before retrying (rate limits only)
	RetryAfter time.Duration
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

// NotFoundMessage is NotFound with a caller-chosen message, for lookups that
// are not keyed by an id (roll numbers, document names, platform handles).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned for bad credentials or a missing session.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// RateLimited reports that an external platform throttled us.
// retryAfter is zero when the platform gave no hint.
func RateLimited(platform string, retryAfter time.Duration) *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    fmt.Sprintf("%s rate limit exceeded", platform),
		RetryAfter: retryAfter,
	}
}

// Upstream wraps any other platform failure. The cause is kept in the message
// for logs and the per-platform failure list, never for a top-level 500.
func Upstream(platform string, cause error) *AppError {
	msg := fmt.Sprintf("%s request failed", platform)
	if cause != nil {
		msg = fmt.Sprintf("%s request failed: %v", platform, cause)
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: msg,
	}
}

// PlatformFailure is one entry of an aggregate failure.
type PlatformFailure struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// AggregateFailure is returned when every requested platform failed.
// The message lists each platform's reason; Details carries the same list.
func AggregateFailure(failures []PlatformFailure) *AppError {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Platform, f.Reason))
	}
	return &AppError{
		Err:     ErrAggregateFailure,
		Message: "Failed to fetch analytics from all platforms (" + strings.Join(parts, "; ") + ")",
		Details: failures,
	}
}

// Kind returns the short machine-readable name of err's sentinel.
// It is used for per-platform failure entries and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrAggregateFailure):
		return "aggregate_failure"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal_error"
	}
}

// Retryable reports whether err is worth retrying after a backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstream)
}
