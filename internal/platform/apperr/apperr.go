// Copyright (c) 2026 SaveState. All rights reserved.
// Author: dev@savestate.social

/*
Package apperr defines the centralized error handling framework for the SaveState client.

It provides a rich error type that bridges the gap between low-level transport
failures and the states the UI layer renders (inline retry, modal alert).

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Network failure, structured API error, bodyless API error, authorization failure.
  - Normalization: Every failure leaving a service is wrapped as an [AppError]
    so screens never inspect raw transport errors.

Unlike a server-side error package, HTTPStatus here records the status the
client OBSERVED from the remote API, not one it intends to serve.
*/
package apperr

import (
	"errors"
	"net/http"
)

// AppError is the canonical error type for the SaveState client.
//
// It carries the observed HTTP status code, a machine-readable code, and a
// message suitable for direct display in an alert or inline failure state.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NETWORK_ERROR", "API_ERROR").
	Code string `json:"code"`
	// Message is a human-readable description safe to show the user.
	Message string `json:"error"`
	// HTTPStatus is the status code observed from the remote API (0 for transport failures).
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for logging only.
	Cause error `json:"-"`
}

// Error implements the error interface. It returns the display message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Transport Failures

// Network creates an [AppError] for a request that never produced an HTTP response
// (DNS failure, connection refused, timeout, cancelled context).
func Network(cause error) *AppError {
	return &AppError{
		Code:       "NETWORK_ERROR",
		Message:    "Network request failed",
		HTTPStatus: 0,
		Cause:      cause,
	}
}

// # API Failures

// API creates an [AppError] for a non-2xx response carrying a server-provided message.
//
// When the body yields no usable message, pass an empty string and a generic
// fallback is substituted.
func API(status int, message string) *AppError {
	if message == "" {
		message = "Request failed"
	}
	return &AppError{
		Code:       "API_ERROR",
		Message:    message,
		HTTPStatus: status,
	}
}

// Unauthorized creates a 401 [AppError]. Raised after token refresh has
// already been attempted and failed.
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Review") // Returns "Review not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// # Client-Side Failures

// Internal creates an [AppError] wrapping an unexpected client-side error
// (JSON decode of a 2xx body, storage failure).
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: 0,
		Cause:      cause,
	}
}

// Validation creates an [AppError] for input rejected before any request is issued.
func Validation(msg string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: 0,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsStatus reports whether err is an [*AppError] observed with the given HTTP status.
func IsStatus(err error, status int) bool {
	ae := As(err)
	return ae != nil && ae.HTTPStatus == status
}
