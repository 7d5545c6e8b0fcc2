package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-auth-stepup/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockBroker struct{ mock.Mock }

func (m *mockBroker) Request(ctx context.Context, ref domain.UserRef, relation, number string) (string, error) {
	args := m.Called(ctx, ref, relation, number)
	return args.String(0), args.Error(1)
}
func (m *mockBroker) Verify(ctx context.Context, ref domain.UserRef, relation, code string) (string, error) {
	args := m.Called(ctx, ref, relation, code)
	return args.String(0), args.Error(1)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccounts) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}
func (m *mockAccounts) SetPassword(ctx context.Context, userID, newPassword string) error {
	return m.Called(ctx, userID, newPassword).Error(0)
}

func newResetRouter(broker *mockBroker, accounts *mockAccounts) chi.Router {
	h := NewStepUpHandler(broker, accounts, nil, nil)
	r := chi.NewRouter()
	r.Post("/v1/password-reset/request", h.ResetRequest)
	r.Post("/v1/password-reset/confirm", h.ResetConfirm)
	return r
}

func TestResetRequest_SendsCode(t *testing.T) {
	broker := &mockBroker{}
	broker.On("Request", mock.Anything, domain.ByUsername("alice"), PasswordRelation, "").
		Return("req-1", nil)
	r := newResetRouter(broker, &mockAccounts{})

	req := httptest.NewRequest(http.MethodPost, "/v1/password-reset/request",
		strings.NewReader(`{"username":"alice"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	broker.AssertExpectations(t)
}

func TestResetRequest_GatewayRejection(t *testing.T) {
	broker := &mockBroker{}
	broker.On("Request", mock.Anything, mock.Anything, PasswordRelation, mock.Anything).
		Return("", &domain.GatewayError{Status: "9"})
	r := newResetRouter(broker, &mockAccounts{})

	req := httptest.NewRequest(http.MethodPost, "/v1/password-reset/request",
		strings.NewReader(`{"username":"alice"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "sms gateway error 9")
}

func TestResetConfirm_WrongCode(t *testing.T) {
	broker := &mockBroker{}
	broker.On("Verify", mock.Anything, domain.ByUsername("alice"), PasswordRelation, "000000").
		Return("", &domain.CheckFailedError{Status: "16", Reason: "code mismatch"})
	accounts := &mockAccounts{}
	r := newResetRouter(broker, accounts)

	req := httptest.NewRequest(http.MethodPost, "/v1/password-reset/confirm",
		strings.NewReader(`{"username":"alice","code":"000000","password":"new-password"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	accounts.AssertNotCalled(t, "SetPassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetConfirm_UpdatesPassword(t *testing.T) {
	broker := &mockBroker{}
	broker.On("Verify", mock.Anything, domain.ByUsername("alice"), PasswordRelation, "123456").
		Return("u1", nil)
	accounts := &mockAccounts{}
	accounts.On("SetPassword", mock.Anything, "u1", "new-password").Return(nil)
	r := newResetRouter(broker, accounts)

	req := httptest.NewRequest(http.MethodPost, "/v1/password-reset/confirm",
		strings.NewReader(`{"username":"alice","code":"123456","password":"new-password"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	accounts.AssertExpectations(t)
}

func TestResetConfirm_NoPendingVerification(t *testing.T) {
	broker := &mockBroker{}
	broker.On("Verify", mock.Anything, mock.Anything, PasswordRelation, mock.Anything).
		Return("", domain.ErrNoPendingVerification)
	r := newResetRouter(broker, &mockAccounts{})

	req := httptest.NewRequest(http.MethodPost, "/v1/password-reset/confirm",
		strings.NewReader(`{"username":"alice","code":"123456","password":"new-password"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "no pending verification")
}
