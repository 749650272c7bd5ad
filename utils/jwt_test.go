package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(7, "staff", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "staff", claims.Role)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(7, "staff", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, err := GenerateToken(1, "admin", time.Hour)
	require.NoError(t, err)

	saved := JWTSecret
	defer func() { JWTSecret = saved }()
	SetJWTSecret("another-secret")

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsTokensSignedWithAGuessedKey(t *testing.T) {
	saved := JWTSecret
	defer func() { JWTSecret = saved }()
	SetJWTSecret("")

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &CustomClaims{
		UserID: 99,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("TestSecretKeyAUTH1945"))
	require.NoError(t, err)

	_, err = ParseToken(signed)
	assert.Error(t, err)

	// tokens minted by this process still verify
	own, err := GenerateToken(99, "admin", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(own)
	assert.NoError(t, err)
}
