package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-stepup/internal/domain"
	"github.com/go-auth-stepup/internal/infrastructure/sns"
	"github.com/go-auth-stepup/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the credential-store surface the account service needs.
type UserStore interface {
	Put(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Resolve(ctx context.Context, ref domain.UserRef) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// TokenSigner issues identity tokens.
type TokenSigner interface {
	Sign(subjectID string) (string, error)
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	// Login verifies the password and issues an identity token.
	Login(ctx context.Context, username, password string) (string, error)
	// SetPassword replaces the password hash. Step-up verification (TOTP
	// or an out-of-band code) is the caller's responsibility.
	SetPassword(ctx context.Context, userID, newPassword string) error
}

type service struct {
	users  UserStore
	signer TokenSigner
	alerts sns.AlertSender
}

func NewService(users UserStore, signer TokenSigner, alerts sns.AlertSender) Service {
	return &service{users: users, signer: signer, alerts: alerts}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username taken: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// Same outcome for unknown user and bad password.
		return "", fmt.Errorf("incorrect username or password: %w", domain.ErrUnauthenticated)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", fmt.Errorf("incorrect username or password: %w", domain.ErrUnauthenticated)
	}
	return s.signer.Sign(u.UserID)
}

func (s *service) SetPassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}
	s.alertPasswordChanged(ctx, userID)
	return nil
}

func (s *service) alertPasswordChanged(ctx context.Context, userID string) {
	if s.alerts == nil {
		return
	}
	u, err := s.users.Resolve(ctx, domain.ByID(userID))
	if err != nil || u.Phone == nil {
		return
	}
	if err := s.alerts.SendAlert(ctx, *u.Phone, "Your account password was changed."); err != nil {
		slog.Warn("could not send security alert", "user_id", userID, "err", err)
	}
}
