package handler

// RESPONSE ENVELOPE:
// Every JSON response has the same outer shape so the dashboard can branch
// on one field:
//
//	{"success": true,  "message": "...", "data": {...}}
//	{"success": false, "message": "...", "errors": [...]}
//
// writeError is the only place where domain errors become status codes.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/student-dashboard/internal/apperror"
)

// maxJSONBody caps JSON request bodies. Bulk imports are the largest.
const maxJSONBody = 2 << 20

// Response is the envelope of every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Summary any    `json:"summary,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set before the body: once Encode writes, the
// header is on the wire and later changes are silently dropped.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// writeList adds the count field list endpoints carry.
func writeList[T any](w http.ResponseWriter, items []T) {
	n := len(items)
	writeJSON(w, http.StatusOK, Response{Success: true, Count: &n, Data: items})
}

// writeError maps a domain error to a status code and the error envelope.
//
// errors.Is walks the whole chain, so a service that returns
// fmt.Errorf("service/user: %w", apperror.NotFound(...)) still maps to 404,
// and errors.As recovers the human-readable message from the *AppError.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown errors can carry SQL, paths or upstream bodies; never echo them.
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Server error"})
		return
	}

	status := statusOf(err)
	body := Response{Message: appErr.Message}

	switch {
	case errors.Is(err, apperror.ErrAggregateFailure):
		body.Errors = appErr.Details
	case errors.Is(err, apperror.ErrValidation):
		if msgs, ok := appErr.Details.([]string); ok && len(msgs) > 1 {
			body.Errors = msgs
		}
	case errors.Is(err, apperror.ErrRateLimited) && appErr.RetryAfter > 0:
		w.Header().Set("Retry-After", strconv.Itoa(int(appErr.RetryAfter.Seconds()+0.5)))
	}

	if status == http.StatusInternalServerError {
		slog.Error("internal error", slog.String("error", err.Error()))
		body.Message = "Server error"
	}
	writeJSON(w, status, body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apperror.ErrAggregateFailure), errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "Request body too large")
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}
