package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-auth-stepup/internal/application/account"
	"github.com/go-auth-stepup/internal/application/twofactor"
	"github.com/go-auth-stepup/internal/domain"
	"github.com/go-auth-stepup/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// UserDirectory looks up credential records for route targets.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AccountHandler handles registration, login and step-up password change.
type AccountHandler struct {
	accounts  account.Service
	twoFactor twofactor.Service
	users     UserDirectory
}

func NewAccountHandler(accounts account.Service, twoFactor twofactor.Service, users UserDirectory) *AccountHandler {
	return &AccountHandler{accounts: accounts, twoFactor: twoFactor, users: users}
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	token, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Token: token})
}

// ChangePassword performs a TOTP step-up before replacing the password.
// No identity token is required; possession of the enrolled second factor
// is the proof of identity.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.users.GetByUsername(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		httpError(w, err)
		return
	}
	if err := h.twoFactor.Verify(r.Context(), domain.ByID(u.UserID), req.Code); err != nil {
		httpError(w, err)
		return
	}
	if err := h.accounts.SetPassword(r.Context(), u.UserID, req.Password); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Updated password"})
}
