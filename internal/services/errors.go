// Package services defines the business logic for rooms, the item ledger,
// and the bill aggregator. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Room-related errors.
var (
	// ErrRoomNotFound indicates that the requested room does not exist or has
	// expired. The two cases are deliberately indistinguishable: expiry is
	// physical deletion, and not revealing whether a code ever existed avoids
	// leaking information.
	ErrRoomNotFound = errors.New("room not found or expired")

	// ErrInvalidName is returned when a participant or creator name is blank.
	ErrInvalidName = errors.New("name must not be blank")

	// ErrInvalidGroup is returned when a join or create request references a
	// group number the room does not define.
	ErrInvalidGroup = errors.New("invalid group number")

	// ErrCodeExhausted is returned when room creation could not allocate a
	// free code within the retry bound. It is transient: the caller may simply
	// try again.
	ErrCodeExhausted = errors.New("unable to allocate room code, try again")
)

// Ledger-related errors.
var (
	// ErrInvalidInput is returned for malformed item submissions: blank name,
	// negative price, or mismatched/empty allocation arrays.
	ErrInvalidInput = errors.New("invalid item input")

	// ErrPercentageMismatch is returned when an item's percentages do not sum
	// to 100 after rounding the sum to the nearest integer.
	ErrPercentageMismatch = errors.New("percentages must sum to 100")
)

// UnknownGroupError is returned when an item allocation references a group
// number absent from the room's roster. It names the offending number so the
// caller can correct the input.
type UnknownGroupError struct {
	Number int
}

// Error implements the error interface.
func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("invalid group number %d", e.Number)
}
