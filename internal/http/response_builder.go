// Package http serves the ledger as a JSON API.
//
// This file builds JSON responses and maps domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ebudget/internal/core"
	"ebudget/internal/datastore"
	"ebudget/internal/middleware/auth"
	"ebudget/internal/services"
)

// Error codes returned in the body of failed requests.
const (
	CodeBadRequest       = "bad_request"
	CodeValidation       = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeConflict         = "category_in_use"
	CodeUnsupported      = "not_supported"
	CodeRateLimited      = "rate_limited"
	CodeUpstreamFailure  = "upstream_failure"
	CodeMethodNotAllowed = "method_not_allowed"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
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

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response. A nil body is sent as an empty response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.data == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.data)
}

// ErrorBody is the body of every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(ErrorBody{Error: code, Message: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, CodeUnauthorized, message).
		Header("WWW-Authenticate", "Bearer")
}

// ErrorFor maps an error returned by the ledger to a response. Anything
// not recognized is a failure of an external dependency.
func ErrorFor(err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Data(ErrorBody{Error: CodeValidation, Message: verr.Message, Field: verr.Field})
	case errors.Is(err, services.ErrCategoryInUse):
		return ErrorResponse(http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, services.ErrNoUser),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return UnauthorizedError("authentication required")
	case errors.Is(err, datastore.ErrNotFound):
		return NotFoundError("not found")
	case errors.Is(err, services.ErrBudgetsUnsupported):
		return ErrorResponse(http.StatusNotImplemented, CodeUnsupported, err.Error())
	}
	return ErrorResponse(http.StatusBadGateway, CodeUpstreamFailure, "the ledger backend failed")
}
