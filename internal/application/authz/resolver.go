package authz

import (
	"errors"
	"strings"

	"github.com/go-auth-stepup/internal/domain"
	jwtinfra "github.com/go-auth-stepup/internal/infrastructure/jwt"
)

// Policy selects how a valid token with a non-matching subject is reported.
type Policy int

const (
	// PolicyReveal denies with Forbidden and the caller-supplied message,
	// acknowledging that the resource exists.
	PolicyReveal Policy = iota
	// PolicyHide denies with NotFound, hiding the resource's existence.
	PolicyHide
)

// Resolver composes token verification with a required-identity check to
// produce a single access decision per protected request.
type Resolver struct {
	tokens *jwtinfra.Provider
}

func NewResolver(tokens *jwtinfra.Provider) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve verifies the token and checks its subject against requiredIDs.
// A nil requiredIDs grants any authenticated subject; an empty non-nil
// slice grants nobody. Subject comparison is case-insensitive: tokens
// survive id-casing drift between the store and its callers.
func (r *Resolver) Resolve(token string, requiredIDs []string, policy Policy, message string) domain.AuthorizationDecision {
	if token == "" {
		return domain.AuthorizationDecision{
			Reason:  domain.ReasonUnauthenticated,
			Message: domain.ErrUnauthenticated.Error(),
		}
	}

	claims, err := r.tokens.Verify(token)
	if err != nil {
		return domain.AuthorizationDecision{
			Reason:  verifyReason(err),
			Message: err.Error(),
		}
	}

	if requiredIDs != nil && !matches(claims.SubjectID, requiredIDs) {
		if policy == PolicyHide {
			return domain.AuthorizationDecision{
				Reason:    domain.ReasonNotFound,
				SubjectID: claims.SubjectID,
			}
		}
		return domain.AuthorizationDecision{
			Reason:    domain.ReasonForbidden,
			SubjectID: claims.SubjectID,
			Message:   message,
		}
	}

	return domain.AuthorizationDecision{
		Granted:   true,
		Reason:    domain.ReasonGranted,
		SubjectID: claims.SubjectID,
	}
}

func matches(subjectID string, requiredIDs []string) bool {
	for _, id := range requiredIDs {
		if strings.EqualFold(id, subjectID) {
			return true
		}
	}
	return false
}

func verifyReason(err error) domain.DecisionReason {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return domain.ReasonTokenExpired
	case errors.Is(err, domain.ErrTokenInvalidSignature):
		return domain.ReasonTokenInvalidSignature
	default:
		return domain.ReasonTokenMalformed
	}
}
