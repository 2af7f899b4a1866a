package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mrbrightsides/sentinel/internal/requestctx"
)

// Error is the error payload written to clients. It is rendered as JSON, or as a small
// HTML page for browsers.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	TraceID   string
}

// NewError constructs a new Error with the provided parameters.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// NotFound is the error returned for unknown routes and disabled features.
func NotFound() Error {
	return NewError("not_found", "the requested resource does not exist", http.StatusNotFound)
}

// Internal is the error returned when a handler fails unexpectedly.
func Internal() Error {
	return NewError("internal_server_error", "internal server error", http.StatusInternalServerError)
}

func (e Error) withContext(ctx context.Context) Error {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	if e.RequestID == "" {
		e.RequestID = sanitize(middleware.GetReqID(ctx), 80)
	}
	if e.TraceID == "" {
		e.TraceID = sanitize(requestctx.TraceID(ctx), 64)
	}
	return e
}

// WriteError writes err in the representation r asks for.
func WriteError(w http.ResponseWriter, r *http.Request, err Error) {
	if WantsHTML(r) {
		WriteHTMLError(r.Context(), w, err)
		return
	}
	WriteJSONError(r.Context(), w, err)
}

// WriteJSONError writes the structured error as JSON.
func WriteJSONError(ctx context.Context, w http.ResponseWriter, err Error) {
	err = err.withContext(ctx)
	payload := map[string]any{
		"error":   err.Code,
		"message": err.Message,
		"status":  err.Status,
	}
	if err.RequestID != "" {
		payload["request_id"] = err.RequestID
	}
	if err.TraceID != "" {
		payload["trace_id"] = err.TraceID
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WantsHTML reports whether the client prefers an HTML response.
func WantsHTML(r *http.Request) bool {
	if r == nil {
		return false
	}
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.NewReplacer("\n", " ", "\r", " ").Replace(value)
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
