package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestGenerateTokens(t *testing.T) {
	pair, err := GenerateTokens(7, "streamer@example.com", "member", testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	access, err := ValidateToken(pair.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 7, access.UserID)
	assert.Equal(t, "streamer@example.com", access.Email)
	assert.Equal(t, tokenTypeAccess, access.TokenType)

	refresh, err := ValidateToken(pair.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, tokenTypeRefresh, refresh.TokenType)
}

func TestGenerateTokens_EmptySecret(t *testing.T) {
	_, err := GenerateTokens(1, "a@b.c", "member", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func TestValidateToken(t *testing.T) {
	token, err := GenerateAccessToken(1, "a@b.c", "member", testSecret)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{"valid", token, testSecret, nil},
		{"wrong secret", token, "other", jwt.ErrTokenSignatureInvalid},
		{"empty secret", token, "", ErrEmptyJWTSecret},
		{"garbage", "not-a-token", testSecret, jwt.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := sign(1, "a@b.c", "member", tokenTypeAccess, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshAccessToken(t *testing.T) {
	pair, err := GenerateTokens(3, "a@b.c", "member", testSecret)
	require.NoError(t, err)

	access, claims, err := RefreshAccessToken(pair.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.Equal(t, 3, claims.UserID)

	_, _, err = RefreshAccessToken(pair.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestAllowList(t *testing.T) {
	list := NewAllowList(" Ops@Overlay.io ,root@overlay.io,, ")

	assert.Equal(t, 2, list.Len())
	assert.True(t, list.IsAuthorized("ops@overlay.io"))
	assert.True(t, list.IsAuthorized("OPS@OVERLAY.IO"))
	assert.True(t, list.IsAuthorized(" root@overlay.io "))
	assert.False(t, list.IsAuthorized("someone@overlay.io"))
	assert.False(t, list.IsAuthorized("overlay.io"))
	assert.False(t, list.IsAuthorized("*@overlay.io"))
	assert.False(t, list.IsAuthorized(""))

	var empty *AllowList
	assert.False(t, empty.IsAuthorized("ops@overlay.io"))
	assert.False(t, NewAllowList("").IsAuthorized(""))
}
