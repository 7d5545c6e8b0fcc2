package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-stepup/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the identity token payload. The subject id is the only
// application claim; everything else lives in the registered set.
type Claims struct {
	SubjectID string `json:"id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 identity tokens with a fixed TTL.
// It is stateless; claims are never mutated after issuance and expiry
// is evaluated at verification time.
type Provider struct {
	secret []byte
	ttl    time.Duration
}

func NewProvider(secret string, ttl time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, errors.New("jwt: signing secret is empty")
	}
	return &Provider{secret: []byte(secret), ttl: ttl}, nil
}

// Sign issues a token for the given subject id.
func (p *Provider) Sign(subjectID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SubjectID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Verify validates the token and returns its claims. Failures resolve
// to domain sentinels: ErrTokenExpired, ErrTokenInvalidSignature or
// ErrTokenMalformed.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrTokenInvalidSignature
		default:
			return nil, domain.ErrTokenMalformed
		}
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrTokenMalformed
	}
	return claims, nil
}
