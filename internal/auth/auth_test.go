package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)

	assert.True(t, CheckPassword(password, hash))
	assert.False(t, CheckPassword("wrongpassword", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	a := New("test-secret")

	token, err := a.GenerateToken("user-1", "testuser")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "readle", claims.Issuer)
}

func TestValidateTokenInvalid(t *testing.T) {
	a := New("test-secret")
	_, err := a.ValidateToken("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := New("secret-a").GenerateToken("user-1", "testuser")
	require.NoError(t, err)

	_, err = New("secret-b").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	a := New("test-secret")

	token, err := a.GenerateToken("user-1", "testuser")
	require.NoError(t, err)

	refreshed, err := a.RefreshToken(token)
	require.NoError(t, err)

	claims, err := a.ValidateToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}
