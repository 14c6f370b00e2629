package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIssuer_MissingSecret(t *testing.T) {
	_, err := NewIssuer("")
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssuer_ZeroValueRefusesToSign(t *testing.T) {
	var i Issuer
	_, err := i.Issue(Profile{ID: 1})
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("k")
	require.NoError(t, err)

	tok, err := issuer.Issue(Profile{ID: 9, Email: "e@example.com", Role: RoleEntity, EntityID: int64p(4)})
	require.NoError(t, err)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, "9", claims.Subject)
	assert.Equal(t, RoleEntity, claims.Role)
	require.NotNil(t, claims.EntityID)
	assert.Equal(t, int64(4), *claims.EntityID)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, TokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	id := claims.Identity()
	assert.True(t, id.CanAccessEntity(4))
	assert.False(t, id.CanAccessEntity(5))
}

func TestIssuer_ExpiresAfter24Hours(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer("k")
	require.NoError(t, err)
	issuer.now = func() time.Time { return issuedAt }

	tok, err := issuer.Issue(Profile{ID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	issuer.now = func() time.Time { return issuedAt.Add(24*time.Hour - time.Second) }
	_, err = issuer.Parse(tok)
	require.NoError(t, err)

	for _, at := range []time.Duration{24 * time.Hour, 24*time.Hour + time.Minute, 72 * time.Hour} {
		issuer.now = func() time.Time { return issuedAt.Add(at) }
		_, err = issuer.Parse(tok)
		assert.ErrorIs(t, err, ErrTokenExpired, "at +%s", at)
	}
}

func TestIssuer_WrongSecret(t *testing.T) {
	a, _ := NewIssuer("right")
	b, _ := NewIssuer("wrong")

	tok, err := a.Issue(Profile{ID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	_, err = b.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer, _ := NewIssuer("k")

	claims := Claims{UserID: 1, Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = issuer.Parse(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RequiresExpiry(t *testing.T) {
	issuer, _ := NewIssuer("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Malformed(t *testing.T) {
	issuer, _ := NewIssuer("k")
	for _, tok := range []string{"", "not.a.jwt", strings.Repeat("a", 40)} {
		_, err := issuer.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
