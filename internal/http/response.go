// Package http exposes the budget services as a JSON REST API on gin.
//
// Every response, success or failure, is wrapped in the same envelope:
// {"success": bool, "data": ..., "error": {"code", "message", "details"}}.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes carried in the envelope.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeRateLimited = "RATE_LIMITED"
	CodeUnknown     = "UNKNOWN_ERROR"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ResponseBuilder provides a fluent API for building enveloped JSON responses.
type ResponseBuilder struct {
	statusCode int
	envelope   Envelope
	headers    map[string]string
}

// NewResponse creates a successful response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		envelope:   Envelope{Success: true},
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload of a successful response.
func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.envelope.Data = data
	return b
}

// Fail turns the response into an error response.
func (b *ResponseBuilder) Fail(code, message string) *ResponseBuilder {
	b.envelope.Success = false
	b.envelope.Data = nil
	b.envelope.Error = &APIError{Code: code, Message: message}
	return b
}

// Details attaches field-level details to an error response.
func (b *ResponseBuilder) Details(details any) *ResponseBuilder {
	if b.envelope.Error != nil {
		b.envelope.Error.Details = details
	}
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Envelope returns the body that Write would send.
func (b *ResponseBuilder) Envelope() Envelope {
	return b.envelope
}

// Write sends the built response and aborts the rest of the handler chain on errors.
func (b *ResponseBuilder) Write(c *gin.Context) {
	for name, value := range b.headers {
		c.Header(name, value)
	}
	if !b.envelope.Success {
		c.AbortWithStatusJSON(b.statusCode, b.envelope)
		return
	}
	c.JSON(b.statusCode, b.envelope)
}

// OK writes data with 200.
func OK(c *gin.Context, data any) {
	NewResponse().Data(data).Write(c)
}

// Created writes data with 201.
func Created(c *gin.Context, data any) {
	NewResponse().Status(http.StatusCreated).Data(data).Write(c)
}

// ErrorResponse creates a failed response with the given status and code.
func ErrorResponse(statusCode int, code, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Fail(code, message)
}

// ValidationFailed creates a 400 VALIDATION_ERROR response.
func ValidationFailed(message string, details any) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeValidation, message).Details(details)
}

// NotFound creates a 404 NOT_FOUND response.
func NotFound(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

// TooManyRequests creates a 429 RATE_LIMITED response. The limiter sets Retry-After.
func TooManyRequests() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.")
}

// InternalError creates a 500 UNKNOWN_ERROR response with a generic message.
func InternalError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeUnknown, "An unexpected error occurred")
}
