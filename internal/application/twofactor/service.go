package twofactor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-stepup/internal/domain"
	"github.com/go-auth-stepup/internal/infrastructure/sns"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Codes are valid for the current 30s step plus one step either side.
const (
	period = 30
	skew   = 1
)

// Enrollment is returned from Enable for client provisioning.
type Enrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

// UserStore is the credential-store surface the manager needs.
type UserStore interface {
	Resolve(ctx context.Context, ref domain.UserRef) (*domain.User, error)
	SetTOTPSecret(ctx context.Context, userID string, secret *string) error
}

type Service interface {
	// Enable enrolls a fresh shared secret, overwriting any existing one.
	// Every code derived from the previous secret stops validating.
	Enable(ctx context.Context, ref domain.UserRef) (*Enrollment, error)
	// Disable clears the enrolled secret. Idempotent.
	Disable(ctx context.Context, ref domain.UserRef) error
	// Verify checks a submitted code against the enrolled secret.
	// Success has no side effect; the secret is not consumed or rotated.
	Verify(ctx context.Context, ref domain.UserRef, code string) error
}

type service struct {
	users  UserStore
	alerts sns.AlertSender
	issuer string
}

func NewService(users UserStore, alerts sns.AlertSender, issuer string) Service {
	return &service{users: users, alerts: alerts, issuer: issuer}
}

func (s *service) Enable(ctx context.Context, ref domain.UserRef) (*Enrollment, error) {
	u, err := s.users.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	// 20 random bytes of secret, base32-encoded in the provisioning URI.
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: u.Username,
		SecretSize:  20,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	secret := key.Secret()
	if err := s.users.SetTOTPSecret(ctx, u.UserID, &secret); err != nil {
		return nil, err
	}
	return &Enrollment{Secret: secret, URL: key.URL()}, nil
}

func (s *service) Disable(ctx context.Context, ref domain.UserRef) error {
	u, err := s.users.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	wasEnabled := u.TOTPEnabled()
	if err := s.users.SetTOTPSecret(ctx, u.UserID, nil); err != nil {
		return err
	}
	if wasEnabled {
		s.alert(ctx, u, "Two-factor authentication was disabled on your account.")
	}
	return nil
}

func (s *service) Verify(ctx context.Context, ref domain.UserRef, code string) error {
	u, err := s.users.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	if !u.TOTPEnabled() {
		return fmt.Errorf("user %s: %w", u.UserID, domain.ErrNotEnabled)
	}
	ok, err := totp.ValidateCustom(code, *u.TOTPSecret, time.Now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return fmt.Errorf("validate totp code: %w", err)
	}
	if !ok {
		return fmt.Errorf("totp: %w", domain.ErrIncorrectCode)
	}
	return nil
}

func (s *service) alert(ctx context.Context, u *domain.User, msg string) {
	if s.alerts == nil || u.Phone == nil {
		return
	}
	if err := s.alerts.SendAlert(ctx, *u.Phone, msg); err != nil {
		slog.Warn("could not send security alert", "user_id", u.UserID, "err", err)
	}
}
