// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and the mapping from domain errors onto status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finmate/internal/core"
	"finmate/internal/log"
	"finmate/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	hasBody    bool
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.body = v
	b.hasBody = true
	return b
}

// Write sends the built response. A response without a body carries no Content-Type.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if !b.hasBody {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(internalErrorBody))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

const internalErrorBody = `{"error":"internal server error"}`

// ValidationError creates a 400 response enumerating field failures.
func ValidationError(errs core.ValidationErrors) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusBadRequest).JSON(errs)
}

// NotFoundError creates a 404 response with an empty body.
func NotFoundError() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNotFound)
}

// InternalServerError creates a 500 response that hides the cause.
func InternalServerError() *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusInternalServerError).
		JSON(map[string]string{"error": "internal server error"})
}

// respondError maps err onto 400, 404 or 500. Only 500s are logged here.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		ValidationError(verrs).Write(w)
	case errors.Is(err, core.ErrInvalidMonth):
		ValidationError(core.ValidationErrors{"month": err.Error()}).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError().Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, nil)
		InternalServerError().Write(w)
	}
}

func respondTooManyRequests(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().
		Status(http.StatusTooManyRequests).
		JSON(map[string]string{"error": "too many requests"}).
		Write(w)
}
