package authz

import (
	"testing"
	"time"

	"github.com/go-auth-stepup/internal/domain"
	jwtinfra "github.com/go-auth-stepup/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, ttl time.Duration) (*Resolver, *jwtinfra.Provider) {
	t.Helper()
	p, err := jwtinfra.NewProvider("test-secret", ttl)
	require.NoError(t, err)
	return NewResolver(p), p
}

func TestResolve_MissingToken(t *testing.T) {
	r, _ := newResolver(t, time.Hour)

	d := r.Resolve("", []string{"u1"}, PolicyReveal, "nope")
	assert.False(t, d.Granted)
	assert.Equal(t, domain.ReasonUnauthenticated, d.Reason)
}

func TestResolve_ExpiredToken(t *testing.T) {
	r, p := newResolver(t, -time.Second)

	token, err := p.Sign("u1")
	require.NoError(t, err)

	d := r.Resolve(token, []string{"u1"}, PolicyReveal, "nope")
	assert.False(t, d.Granted)
	assert.Equal(t, domain.ReasonTokenExpired, d.Reason)
	assert.NotEmpty(t, d.Message)
}

func TestResolve_TamperedToken(t *testing.T) {
	r, _ := newResolver(t, time.Hour)

	other, err := jwtinfra.NewProvider("other-secret", time.Hour)
	require.NoError(t, err)
	token, err := other.Sign("u1")
	require.NoError(t, err)

	d := r.Resolve(token, []string{"u1"}, PolicyReveal, "nope")
	assert.False(t, d.Granted)
	assert.Equal(t, domain.ReasonTokenInvalidSignature, d.Reason)
}

func TestResolve_GarbageToken(t *testing.T) {
	r, _ := newResolver(t, time.Hour)

	d := r.Resolve("garbage", nil, PolicyReveal, "")
	assert.False(t, d.Granted)
	assert.Equal(t, domain.ReasonTokenMalformed, d.Reason)
}

func TestResolve_SubjectMatch_CaseInsensitive(t *testing.T) {
	r, p := newResolver(t, time.Hour)

	token, err := p.Sign("01HXUSERID")
	require.NoError(t, err)

	d := r.Resolve(token, []string{"01hxuserid"}, PolicyReveal, "nope")
	assert.True(t, d.Granted)
	assert.Equal(t, "01HXUSERID", d.SubjectID)
}

func TestResolve_NilRequiredIDs_GrantsAnySubject(t *testing.T) {
	r, p := newResolver(t, time.Hour)

	token, err := p.Sign("anyone")
	require.NoError(t, err)

	d := r.Resolve(token, nil, PolicyReveal, "")
	assert.True(t, d.Granted)
	assert.Equal(t, "anyone", d.SubjectID)
}

func TestResolve_NoMatch_RevealPolicy(t *testing.T) {
	r, p := newResolver(t, time.Hour)

	token, err := p.Sign("u2")
	require.NoError(t, err)

	d := r.Resolve(token, []string{"u1"}, PolicyReveal, "Cannot edit another user")
	assert.False(t, d.Granted)
	assert.Equal(t, domain.ReasonForbidden, d.Reason)
	assert.Equal(t, "Cannot edit another user", d.Message)
	// Subject still reported for audit logging.
	assert.Equal(t, "u2", d.SubjectID)
}

func TestResolve_NoMatch_HidePolicy(t *testing.T) {
	r, p := newResolver(t, time.Hour)

	token, err := p.Sign("u2")
	require.NoError(t, err)

	d := r.Resolve(token, []string{"u1"}, PolicyHide, "")
	assert.False(t, d.Granted)
	assert.Equal(t, domain.ReasonNotFound, d.Reason)
	assert.Empty(t, d.Message)
}

func TestResolve_EmptyNonNilRequiredIDs_GrantsNobody(t *testing.T) {
	r, p := newResolver(t, time.Hour)

	token, err := p.Sign("u1")
	require.NoError(t, err)

	d := r.Resolve(token, []string{}, PolicyReveal, "nope")
	assert.False(t, d.Granted)
	assert.Equal(t, domain.ReasonForbidden, d.Reason)
}
