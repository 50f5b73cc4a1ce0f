package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "skillbridge-test",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := newTestManager()

	token, jti, err := m.GenerateAccessToken(7, "student@example.com", "student", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, jti, claims.ID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager(JWTConfig{
		Secret:        "different-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "skillbridge-test",
	})

	token, _, err := m.GenerateAccessToken(7, "student@example.com", "student", 0)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        -time.Minute, // already expired
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "skillbridge-test",
	})

	token, _, err := m.GenerateAccessToken(7, "student@example.com", "student", 0)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshAccessToken(t *testing.T) {
	m := newTestManager()

	refresh, _, err := m.GenerateRefreshToken(7, "student@example.com", "student", 1)
	require.NoError(t, err)

	access, _, err := m.RefreshAccessToken(refresh, 1)
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestRefreshAccessTokenRejectsAccessToken(t *testing.T) {
	m := newTestManager()

	access, _, err := m.GenerateAccessToken(7, "student@example.com", "student", 1)
	require.NoError(t, err)

	_, _, err = m.RefreshAccessToken(access, 1)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
