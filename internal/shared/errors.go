package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so the HTTP boundary can map it to a
// status code without inspecting message text.
type Kind string

const (
	// KindValidation indicates malformed or out-of-range input.
	KindValidation Kind = "validation"
	// KindNotFound indicates a missing resource, including resources that
	// exist but belong to another farm.
	KindNotFound Kind = "not_found"
	// KindForbidden indicates the caller's role lacks permission.
	KindForbidden Kind = "forbidden"
	// KindUnauthorized indicates a missing or invalid credential.
	KindUnauthorized Kind = "unauthorized"
	// KindInsufficientStock indicates a consumption exceeding available quantity.
	KindInsufficientStock Kind = "insufficient_stock"
	// KindExceedsCount indicates a flock decrement exceeding the current count.
	KindExceedsCount Kind = "exceeds_count"
	// KindShedUnavailable indicates a shed precondition failure.
	KindShedUnavailable Kind = "shed_unavailable"
	// KindShedNotFound indicates a missing shed.
	KindShedNotFound Kind = "shed_not_found"
	// KindBiosecurityHold indicates a sale blocked by a withdrawal window.
	KindBiosecurityHold Kind = "biosecurity_hold"
	// KindInvalidReference indicates a foreign id that does not resolve.
	KindInvalidReference Kind = "invalid_reference"
	// KindTransactionFailed indicates an infrastructure commit failure.
	KindTransactionFailed Kind = "transaction_failed"
)

// Error is the typed failure every core operation returns. Message carries
// the numeric context (current stock, count, withdrawal date) so callers can
// correct without a second round-trip.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// E builds a typed domain error.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, or KindTransactionFailed for untyped
// infrastructure errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransactionFailed
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
