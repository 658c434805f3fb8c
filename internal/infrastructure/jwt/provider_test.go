package jwtinfra

import (
	"strings"
	"testing"
	"time"

	"github.com/go-employee-api/internal/config"
	"github.com/go-employee-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, secret string) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{JWTSecret: secret, JWTExpiry: time.Hour})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RejectsEmptySecret(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTExpiry: time.Hour})
	assert.Error(t, err)
}

func TestProvider_SignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, "s3cret")

	tok, err := p.Sign(42)
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.EmployeeID)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestProvider_Sign_SameSecondTokensDiffer(t *testing.T) {
	p := newTestProvider(t, "s3cret")
	fixed := time.Now()
	p.now = func() time.Time { return fixed }

	a, err := p.Sign(1)
	require.NoError(t, err)
	b, err := p.Sign(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestProvider_Verify_Expired(t *testing.T) {
	p := newTestProvider(t, "s3cret")
	issued := time.Now()
	p.now = func() time.Time { return issued }

	tok, err := p.Sign(7)
	require.NoError(t, err)

	p.now = func() time.Time { return issued.Add(time.Hour + time.Second) }
	_, err = p.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.NotErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestProvider_Verify_Invalid(t *testing.T) {
	p := newTestProvider(t, "s3cret")
	other := newTestProvider(t, "different")

	foreign, err := other.Sign(7)
	require.NoError(t, err)

	good, err := p.Sign(7)
	require.NoError(t, err)
	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{EmployeeID: 7}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"wrong secret": foreign,
		"tampered":     tampered,
		"garbage":      "not-a-token",
		"alg none":     noneAlg,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Verify(tok)
			assert.ErrorIs(t, err, domain.ErrTokenInvalid)
		})
	}
}

func TestProvider_Verify_MissingEmployeeID(t *testing.T) {
	p := newTestProvider(t, "s3cret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = p.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
