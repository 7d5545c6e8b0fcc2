package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so callers can branch with errors.Is without
// depending on infrastructure error types.
var (
	ErrUnauthenticated       = errors.New("missing token")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("invalid token signature")
	ErrTokenMalformed        = errors.New("malformed token")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrNotEnabled            = errors.New("2fa not enabled")
	ErrIncorrectCode         = errors.New("incorrect code")
	ErrNoPendingVerification = errors.New("no pending verification")
	ErrBadRequest            = errors.New("bad request")
	ErrConflict              = errors.New("conflict")
	ErrStoreUnavailable      = errors.New("credential store unavailable")
)

// GatewayError reports that the SMS gateway rejected a code dispatch.
// Status is the provider's error code, surfaced verbatim.
type GatewayError struct {
	Status string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("sms gateway error %s", e.Status)
}

// CheckFailedError reports that the SMS gateway rejected a submitted code.
// The pending verification is left intact so the code can be retried.
type CheckFailedError struct {
	Status string
	Reason string
}

func (e *CheckFailedError) Error() string {
	return fmt.Sprintf("sms gateway error %s: %s", e.Status, e.Reason)
}

func (e *CheckFailedError) Unwrap() error { return ErrIncorrectCode }
