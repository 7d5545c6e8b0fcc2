package twofactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-auth-stepup/internal/domain"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Resolve(ctx context.Context, ref domain.UserRef) (*domain.User, error) {
	args := m.Called(ctx, ref)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) SetTOTPSecret(ctx context.Context, userID string, secret *string) error {
	return m.Called(ctx, userID, secret).Error(0)
}

type mockAlertSender struct{ mock.Mock }

func (m *mockAlertSender) SendAlert(ctx context.Context, to, msg string) error {
	return m.Called(ctx, to, msg).Error(0)
}

func genCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func strPtr(s string) *string { return &s }

// --- Enable ---

func TestEnable_StoresFreshSecret(t *testing.T) {
	us := &mockUserStore{}
	user := &domain.User{UserID: "u1", Username: "alice"}
	us.On("Resolve", mock.Anything, domain.ByUsername("alice")).Return(user, nil)
	us.On("SetTOTPSecret", mock.Anything, "u1", mock.AnythingOfType("*string")).Return(nil)

	svc := NewService(us, nil, "Quiz Game")
	enr, err := svc.Enable(context.Background(), domain.ByUsername("alice"))

	require.NoError(t, err)
	assert.NotEmpty(t, enr.Secret)
	assert.Contains(t, enr.URL, "otpauth://totp/")
	assert.Contains(t, enr.URL, "alice")
	us.AssertExpectations(t)
}

func TestEnable_ReenrollmentInvalidatesOldSecret(t *testing.T) {
	us := &mockUserStore{}
	user := &domain.User{UserID: "u1", Username: "alice", TOTPSecret: strPtr("OLDSECRETOLDSECRETOLDSECRETOLDSE")}
	us.On("Resolve", mock.Anything, domain.ByID("u1")).Return(user, nil)

	var stored []string
	us.On("SetTOTPSecret", mock.Anything, "u1", mock.AnythingOfType("*string")).
		Run(func(args mock.Arguments) {
			stored = append(stored, *args.Get(2).(*string))
		}).Return(nil)

	svc := NewService(us, nil, "Quiz Game")
	first, err := svc.Enable(context.Background(), domain.ByID("u1"))
	require.NoError(t, err)
	second, err := svc.Enable(context.Background(), domain.ByID("u1"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Secret, second.Secret)
	assert.Equal(t, []string{first.Secret, second.Secret}, stored)

	// A code from the first secret no longer validates against the second.
	oldCode := genCode(t, first.Secret, time.Now())
	ok, err := totp.ValidateCustom(oldCode, second.Secret, time.Now(), totp.ValidateOpts{
		Period: period, Skew: skew, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnable_UserNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("Resolve", mock.Anything, mock.Anything).Return(nil, domain.ErrUserNotFound)

	svc := NewService(us, nil, "Quiz Game")
	_, err := svc.Enable(context.Background(), domain.ByUsername("ghost"))
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

// --- Disable ---

func TestDisable_ClearsSecretAndAlerts(t *testing.T) {
	us := &mockUserStore{}
	al := &mockAlertSender{}
	user := &domain.User{UserID: "u1", Username: "alice", Phone: strPtr("+15551234567"), TOTPSecret: strPtr("JBSWY3DPEHPK3PXP")}
	us.On("Resolve", mock.Anything, domain.ByID("u1")).Return(user, nil)
	us.On("SetTOTPSecret", mock.Anything, "u1", (*string)(nil)).Return(nil)
	al.On("SendAlert", mock.Anything, "+15551234567", mock.Anything).Return(nil)

	svc := NewService(us, al, "Quiz Game")
	require.NoError(t, svc.Disable(context.Background(), domain.ByID("u1")))
	al.AssertExpectations(t)
}

func TestDisable_AlreadyDisabled_IsIdempotent(t *testing.T) {
	us := &mockUserStore{}
	al := &mockAlertSender{}
	user := &domain.User{UserID: "u1", Username: "alice"}
	us.On("Resolve", mock.Anything, domain.ByID("u1")).Return(user, nil)
	us.On("SetTOTPSecret", mock.Anything, "u1", (*string)(nil)).Return(nil)

	svc := NewService(us, al, "Quiz Game")
	require.NoError(t, svc.Disable(context.Background(), domain.ByID("u1")))
	// No alert when nothing was enabled.
	al.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything, mock.Anything)
}

// --- Verify ---

func TestVerify_UserNotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("Resolve", mock.Anything, mock.Anything).Return(nil, domain.ErrUserNotFound)

	svc := NewService(us, nil, "Quiz Game")
	err := svc.Verify(context.Background(), domain.ByUsername("ghost"), "123456")
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestVerify_NotEnabled(t *testing.T) {
	us := &mockUserStore{}
	us.On("Resolve", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1"}, nil)

	svc := NewService(us, nil, "Quiz Game")
	err := svc.Verify(context.Background(), domain.ByID("u1"), "123456")
	assert.True(t, errors.Is(err, domain.ErrNotEnabled))
}

func TestVerify_CurrentStepCode(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	us := &mockUserStore{}
	us.On("Resolve", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1", TOTPSecret: &secret}, nil)

	svc := NewService(us, nil, "Quiz Game")
	code := genCode(t, secret, time.Now())
	assert.NoError(t, svc.Verify(context.Background(), domain.ByID("u1"), code))
}

func TestVerify_NoSideEffectOnSuccess(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	us := &mockUserStore{}
	us.On("Resolve", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1", TOTPSecret: &secret}, nil)

	svc := NewService(us, nil, "Quiz Game")
	code := genCode(t, secret, time.Now())
	require.NoError(t, svc.Verify(context.Background(), domain.ByID("u1"), code))
	// Same code again: still valid within the step, secret untouched.
	require.NoError(t, svc.Verify(context.Background(), domain.ByID("u1"), code))
	us.AssertNotCalled(t, "SetTOTPSecret", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_StaleCodeRejected(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	us := &mockUserStore{}
	us.On("Resolve", mock.Anything, mock.Anything).Return(&domain.User{UserID: "u1", TOTPSecret: &secret}, nil)

	svc := NewService(us, nil, "Quiz Game")
	// 10 steps in the past, far outside the one-step skew window.
	code := genCode(t, secret, time.Now().Add(-10*period*time.Second))
	err := svc.Verify(context.Background(), domain.ByID("u1"), code)
	assert.True(t, errors.Is(err, domain.ErrIncorrectCode))
}
