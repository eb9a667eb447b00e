package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	maxBodySize      = 1 << 20
	maxImageBodySize = 16 << 20
)

// An APIError is the error body of a failed request.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

type errorResponse struct {
	Error *APIError `json:"error"`
}

var errStatus = []struct {
	target error
	code   string
	status int
}{
	{domain.ErrProductNotFound, "PRODUCT_NOT_FOUND", http.StatusNotFound},
	{domain.ErrLineNotFound, "LINE_NOT_FOUND", http.StatusNotFound},
	{domain.ErrSelectionRequired, "SELECTION_REQUIRED", http.StatusBadRequest},
	{domain.ErrInvalidQuantity, "INVALID_QUANTITY", http.StatusBadRequest},
	{domain.ErrInvalidCriteria, "INVALID_CRITERIA", http.StatusBadRequest},
	{domain.ErrInvalidQuery, "INVALID_QUERY", http.StatusBadRequest},
	{domain.ErrInvalidImage, "INVALID_IMAGE", http.StatusBadRequest},
	{domain.ErrInvalidReview, "INVALID_REVIEW", http.StatusBadRequest},
}

// toAPIError maps err to the client facing error.
//
// Sentinel errors keep the message after the sentinel text, so
// "invalid review: Please select a rating" becomes "Please select a rating".
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, e := range errStatus {
		if errors.Is(err, e.target) {
			return &APIError{
				Code:       e.code,
				Message:    userMessage(err, e.target),
				StatusCode: e.status,
			}
		}
	}
	return nil
}

func userMessage(err, target error) string {
	msg := err.Error()
	prefix := target.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return target.Error()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	const op = "httphandler.writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "op", op, "err", err)
	}
}

// writeError writes err as an [APIError] body. Unknown errors are logged and
// hidden behind a generic message.
//
// A cancelled request context means the client is gone, nothing is written.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	const op = "httphandler.writeError"

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		slog.Info("request cancelled", "op", op, "path", r.URL.Path)
		return
	}

	apiErr := toAPIError(err)
	if apiErr == nil {
		slog.Error("internal error", "op", op, "path", r.URL.Path, "err", err)
		apiErr = &APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
	}
	writeJSON(w, apiErr.StatusCode, errorResponse{apiErr})
}

func badRequest(msg string) *APIError {
	return &APIError{
		Code:       "BAD_REQUEST",
		Message:    msg,
		StatusCode: http.StatusBadRequest,
	}
}

// decodeJSON reads a single JSON value of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &APIError{
				Code:       "BODY_TOO_LARGE",
				Message:    fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
				StatusCode: http.StatusRequestEntityTooLarge,
			}
		}
		return badRequest("invalid JSON data")
	}
	return nil
}
