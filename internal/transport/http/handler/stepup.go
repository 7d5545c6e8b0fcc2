package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-stepup/internal/application/account"
	"github.com/go-auth-stepup/internal/application/authz"
	"github.com/go-auth-stepup/internal/application/stepup"
	"github.com/go-auth-stepup/internal/domain"
	"github.com/go-auth-stepup/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// PasswordRelation scopes the out-of-band reset flow; other relations are
// free-form and owned by their callers.
const PasswordRelation = "password"

type RequestCodeRequest struct {
	Phone string `json:"phone" validate:"omitempty,e164"`
}

type CheckCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type ResetRequestRequest struct {
	Username string `json:"username" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
}

type ResetConfirmRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// StepUpHandler exposes the out-of-band verification broker: generic
// per-relation endpoints for authenticated users, plus the public
// password-reset pair built on the "password" relation.
type StepUpHandler struct {
	broker   stepup.Service
	accounts account.Service
	resolver *authz.Resolver
	users    UserDirectory
}

func NewStepUpHandler(broker stepup.Service, accounts account.Service, resolver *authz.Resolver, users UserDirectory) *StepUpHandler {
	return &StepUpHandler{broker: broker, accounts: accounts, resolver: resolver, users: users}
}

// RequestCode dispatches a one-time code for (target user, relation).
func (h *StepUpHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	u, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}
	var req RequestCodeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	reqID, err := h.broker.Request(r.Context(), domain.ByID(u.UserID), chi.URLParam(r, "relation"), req.Phone)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, VerificationEnvelope{RequestID: reqID})
}

// CheckCode verifies a submitted code for (target user, relation).
func (h *StepUpHandler) CheckCode(w http.ResponseWriter, r *http.Request) {
	u, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}
	var req CheckCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, err := h.broker.Verify(r.Context(), domain.ByID(u.UserID), chi.URLParam(r, "relation"), req.Code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verified"})
}

// ResetRequest starts a password reset: no token required, the SMS code is
// the proof of identity. Rate-limited at the router.
func (h *StepUpHandler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, err := h.broker.Request(r.Context(), domain.ByUsername(req.Username), PasswordRelation, req.Phone); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "code sent"})
}

// ResetConfirm completes a password reset with the code from ResetRequest.
func (h *StepUpHandler) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req ResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	userID, err := h.broker.Verify(r.Context(), domain.ByUsername(req.Username), PasswordRelation, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	if err := h.accounts.SetPassword(r.Context(), userID, req.Password); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Updated password"})
}

func (h *StepUpHandler) authorizeOwner(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	u, err := h.users.GetByUsername(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		httpError(w, err)
		return nil, false
	}
	d := h.resolver.Resolve(requestToken(r), []string{u.UserID}, authz.PolicyHide, "")
	if !d.Granted {
		writeDecision(w, d)
		return nil, false
	}
	return u, true
}
