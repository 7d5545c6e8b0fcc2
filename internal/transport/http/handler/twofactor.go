package handler

import (
	"net/http"

	"github.com/go-auth-stepup/internal/application/authz"
	"github.com/go-auth-stepup/internal/application/twofactor"
	"github.com/go-auth-stepup/internal/domain"
	"github.com/go-chi/chi/v5"
)

// TwoFactorHandler handles TOTP enrollment endpoints. Both operations are
// self-service: the caller's token subject must be the route's target user.
type TwoFactorHandler struct {
	twoFactor twofactor.Service
	resolver  *authz.Resolver
	users     UserDirectory
}

func NewTwoFactorHandler(twoFactor twofactor.Service, resolver *authz.Resolver, users UserDirectory) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactor: twoFactor, resolver: resolver, users: users}
}

func (h *TwoFactorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	u, ok := h.authorizeOwner(w, r, "Cannot edit another user")
	if !ok {
		return
	}
	enr, err := h.twoFactor.Enable(r.Context(), domain.ByID(u.UserID))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enr)
}

func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	u, ok := h.authorizeOwner(w, r, "Cannot edit another user")
	if !ok {
		return
	}
	if err := h.twoFactor.Disable(r.Context(), domain.ByID(u.UserID)); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeOwner loads the target user and makes the single resolve call
// for this request: the token subject must equal the target's id.
func (h *TwoFactorHandler) authorizeOwner(w http.ResponseWriter, r *http.Request, message string) (*domain.User, bool) {
	u, err := h.users.GetByUsername(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		httpError(w, err)
		return nil, false
	}
	d := h.resolver.Resolve(requestToken(r), []string{u.UserID}, authz.PolicyReveal, message)
	if !d.Granted {
		writeDecision(w, d)
		return nil, false
	}
	return u, true
}
