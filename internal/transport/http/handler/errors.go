package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-auth-stepup/internal/domain"
)

// httpError maps a typed domain error to a transport response. The core
// returns only the taxonomy below; anything unrecognized is reported as
// a 503 without leaking internals.
func httpError(w http.ResponseWriter, err error) {
	var gwErr *domain.GatewayError
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalidSignature),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrIncorrectCode),
		errors.Is(err, domain.ErrNotEnabled),
		errors.Is(err, domain.ErrNoPendingVerification):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &gwErr), errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "internal error")
	}
}

// requestToken extracts the identity token from the Authorization header
// (Bearer scheme) or the legacy x-access-token header.
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("x-access-token")
}

// decisionStatus maps a denial reason to its status code.
func decisionStatus(reason domain.DecisionReason) int {
	switch reason {
	case domain.ReasonForbidden:
		return http.StatusForbidden
	case domain.ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusUnauthorized
	}
}

func writeDecision(w http.ResponseWriter, d domain.AuthorizationDecision) {
	status := decisionStatus(d.Reason)
	if d.Message == "" {
		w.WriteHeader(status)
		return
	}
	writeError(w, status, d.Message)
}
