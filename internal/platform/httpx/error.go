// Package httpx carries the JSON error envelope shared by every handler.
// Clients key on the stable "error" code; "message" is human-oriented and
// may change wording between releases.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sante-plus/api/internal/platform/requestctx"
)

const (
	codeLimit    = 80
	messageLimit = 512
	traceLimit   = 64
)

// Error describes one API failure before serialisation.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	TraceID   string
	Details   map[string]any
}

// NewError builds an Error. A zero status becomes 500 so a forgotten status
// never serialises as a success.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    singleLine(code, codeLimit),
		Message: singleLine(message, messageLimit),
		Status:  status,
	}
}

// WithRequestID pins the request identifier instead of reading it from the
// context at write time.
func (e Error) WithRequestID(id string) Error {
	e.RequestID = singleLine(id, codeLimit)
	return e
}

// WithTraceID pins the trace identifier instead of reading it from the
// context at write time.
func (e Error) WithTraceID(id string) Error {
	e.TraceID = singleLine(id, traceLimit)
	return e
}

// WithDetails merges extra fields into the top level of the envelope, e.g.
// the list of missing shipping fields on a validation failure.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(details))
	for k, v := range details {
		merged[k] = v
	}
	e.Details = merged
	return e
}

// WriteError serialises the envelope, filling request and trace identifiers
// from the context when the error does not carry them.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	requestID := err.RequestID
	if requestID == "" {
		requestID = singleLine(middleware.GetReqID(ctx), codeLimit)
	}
	traceID := err.TraceID
	if traceID == "" {
		traceID = singleLine(requestctx.TraceID(ctx), traceLimit)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err.envelope(status, requestID, traceID))
}

func (e Error) envelope(status int, requestID, traceID string) map[string]any {
	payload := map[string]any{
		"error":   e.Code,
		"message": e.Message,
		"status":  status,
	}
	if requestID != "" {
		payload["request_id"] = requestID
	}
	if traceID != "" {
		payload["trace_id"] = traceID
	}
	for k, v := range e.Details {
		payload[k] = v
	}
	return payload
}

// singleLine folds newlines into spaces and truncates, keeping every
// envelope field safe for single-line log sinks.
func singleLine(value string, limit int) string {
	value = strings.NewReplacer("\n", " ", "\r", " ").Replace(value)
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
