// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, not_found) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., percentage_mismatch, unknown_group) are reserved
//     for validation failures that clients are expected to branch on, typically to
//     highlight the offending form field.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "percentage_mismatch",
//	  "message": "percentages must sum to 100"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodePercentageMismatch  = "percentage_mismatch"
	ErrCodeUnknownGroup        = "unknown_group"
	ErrCodeAllocationExhausted = "code_allocation_exhausted"
)

// failService translates a service-layer error into the matching HTTP status
// and stable code. Handlers call it after any service method returns an error;
// messages come from the error itself so validation feedback (e.g., the
// offending group number) reaches the client verbatim.
func failService(c *gin.Context, err error) {
	var unknownGroup *services.UnknownGroupError

	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.As(err, &unknownGroup):
		fail(c, http.StatusBadRequest, ErrCodeUnknownGroup, err.Error())
	case errors.Is(err, services.ErrPercentageMismatch):
		fail(c, http.StatusBadRequest, ErrCodePercentageMismatch, err.Error())
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrInvalidGroup):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrCodeExhausted):
		fail(c, http.StatusInternalServerError, ErrCodeAllocationExhausted, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
