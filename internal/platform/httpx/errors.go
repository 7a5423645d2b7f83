package httpx

import (
	"net/http"

	"github.com/farmcore/farmcore/internal/shared"
)

// RespondError maps typed domain errors to HTTP responses using RFC7807.
// Untyped errors are treated as transaction failures: the enclosing
// transaction has already rolled back, nothing partial is observable, and no
// internals leak to the caller.
func RespondError(w http.ResponseWriter, err error) {
	kind := shared.KindOf(err)
	switch kind {
	case shared.KindValidation, shared.KindInvalidReference:
		Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case shared.KindInsufficientStock:
		Problem(w, http.StatusBadRequest, "Insufficient Stock", err.Error())
	case shared.KindExceedsCount:
		Problem(w, http.StatusBadRequest, "Exceeds Flock Count", err.Error())
	case shared.KindShedUnavailable:
		Problem(w, http.StatusBadRequest, "Shed Unavailable", err.Error())
	case shared.KindBiosecurityHold:
		Problem(w, http.StatusBadRequest, "Biosecurity Hold", err.Error())
	case shared.KindShedNotFound:
		Problem(w, http.StatusNotFound, "Shed Not Found", err.Error())
	case shared.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.KindForbidden:
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case shared.KindUnauthorized:
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Transaction Failed", "")
	}
}
