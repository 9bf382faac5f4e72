package auth

import (
	"testing"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndParse(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	manager, err := NewTokenManager(TokenManagerConfig{SigningSecret: []byte("secret"), Clock: fixedClock(issuedAt)})
	require.NoError(t, err)

	token, expiresAt, err := manager.Issue(&models.Profile{ID: 42, Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(72*time.Hour), expiresAt)

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenManager(TokenManagerConfig{SigningSecret: []byte("secret"), TokenTTL: time.Hour, Clock: fixedClock(issuedAt)})
	require.NoError(t, err)
	token, _, err := issuer.Issue(&models.Profile{ID: 1, Email: "a@b.co"})
	require.NoError(t, err)

	later, err := NewTokenManager(TokenManagerConfig{SigningSecret: []byte("secret"), Clock: fixedClock(issuedAt.Add(2 * time.Hour))})
	require.NoError(t, err)
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignatures(t *testing.T) {
	now := time.Now()
	manager, err := NewTokenManager(TokenManagerConfig{SigningSecret: []byte("secret")})
	require.NoError(t, err)
	other, err := NewTokenManager(TokenManagerConfig{SigningSecret: []byte("other")})
	require.NoError(t, err)

	token, _, err := other.Issue(&models.Profile{ID: 1, Email: "a@b.co"})
	require.NoError(t, err)
	_, err = manager.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JwtCustomClaims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = manager.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(TokenManagerConfig{})
	assert.ErrorIs(t, err, ErrMissingSigningSecret)
}
