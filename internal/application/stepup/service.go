package stepup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-stepup/internal/domain"
	"github.com/go-auth-stepup/internal/infrastructure/verify"
)

// UserStore is the credential-store surface the broker needs.
type UserStore interface {
	Resolve(ctx context.Context, ref domain.UserRef) (*domain.User, error)
}

// HandleStore persists outstanding verification handles. Put overwrites;
// ConsumeIfMatch must be conditional on the request id so that racing
// consumers cannot both succeed.
type HandleStore interface {
	Put(ctx context.Context, h *domain.VerificationHandle) error
	Get(ctx context.Context, userID, relation string) (*domain.VerificationHandle, error)
	ConsumeIfMatch(ctx context.Context, userID, relation, requestID string) error
}

// Service brokers out-of-band one-time-code verification, one pending
// request per (user, relation). Gateway calls are never retried here;
// every failure goes back to the caller for disposition.
type Service interface {
	// Request dispatches a code to the user's phone and records the
	// provider's request id under (user, relation). A second request for
	// the same relation replaces the first; the superseded code becomes
	// permanently unconsumable.
	Request(ctx context.Context, ref domain.UserRef, relation, number string) (string, error)
	// Verify checks the submitted code against the pending request.
	// On provider success the handle is consumed exactly once; on code
	// mismatch it stays pending so the code can be retried.
	Verify(ctx context.Context, ref domain.UserRef, relation, code string) (string, error)
}

type service struct {
	users     UserStore
	handles   HandleStore
	gateway   verify.Gateway
	handleTTL time.Duration
}

func NewService(users UserStore, handles HandleStore, gateway verify.Gateway, handleTTL time.Duration) Service {
	return &service{users: users, handles: handles, gateway: gateway, handleTTL: handleTTL}
}

func (s *service) Request(ctx context.Context, ref domain.UserRef, relation, number string) (string, error) {
	if relation == "" {
		return "", fmt.Errorf("relation required: %w", domain.ErrBadRequest)
	}
	u, err := s.users.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if number == "" {
		if u.Phone == nil {
			return "", fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
		}
		number = *u.Phone
	}

	res, err := s.gateway.RequestCode(ctx, number)
	if err != nil {
		return "", err
	}
	if res.Status != verify.StatusOK {
		return "", &domain.GatewayError{Status: res.Status}
	}

	now := time.Now().UTC()
	h := &domain.VerificationHandle{
		UserID:    u.UserID,
		Relation:  relation,
		RequestID: res.RequestID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.handleTTL).Unix(),
	}
	if err := s.handles.Put(ctx, h); err != nil {
		return "", err
	}
	slog.Info("oob code requested", "user_id", u.UserID, "relation", relation, "request_id", res.RequestID)
	return res.RequestID, nil
}

func (s *service) Verify(ctx context.Context, ref domain.UserRef, relation, code string) (string, error) {
	u, err := s.users.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	h, err := s.handles.Get(ctx, u.UserID, relation)
	if err != nil {
		return "", err
	}

	res, err := s.gateway.CheckCode(ctx, h.RequestID, code)
	if err != nil {
		return "", err
	}
	if res.Status != verify.StatusOK {
		return "", &domain.CheckFailedError{Status: res.Status, Reason: res.ErrorText}
	}

	// Conditional on the request id: exactly one of two racing verifies
	// consumes the handle, the other reports no pending verification.
	if err := s.handles.ConsumeIfMatch(ctx, u.UserID, relation, h.RequestID); err != nil {
		return "", err
	}
	slog.Info("oob code verified", "user_id", u.UserID, "relation", relation, "request_id", h.RequestID)
	return u.UserID, nil
}
