package httpx

import (
	"errors"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/shared"
)

// RespondError maps domain errors to HTTP problem responses. Authentication
// failures all collapse to generic titles; the response never reveals whether
// an email exists, a password was wrong, or a session merely expired.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrDuplicateUser):
		Problem(w, http.StatusBadRequest, "Bad Request", "email already registered")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, shared.ErrInvalidSession),
		errors.Is(err, shared.ErrExpiredSession),
		errors.Is(err, shared.ErrMalformedCredentialHeader),
		errors.Is(err, shared.ErrInvalidResetToken):
		Problem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, shared.ErrUserNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, shared.ErrUnknownField):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
