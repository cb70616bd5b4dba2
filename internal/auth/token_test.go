package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret-key", 24*time.Hour)
	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("user-1", "a@example.com", "alice")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, issuedAt.Add(24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestVerifyRejects(t *testing.T) {
	svc := NewTokenService("test-secret-key", 24*time.Hour)
	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	valid, err := svc.Issue("user-1", "", "")
	require.NoError(t, err)

	other := NewTokenService("another-secret", 24*time.Hour)
	other.now = svc.now
	foreign, err := other.Issue("user-1", "", "")
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).
		SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": issuedAt.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "user-1",
		"exp": issuedAt.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		now   time.Time
	}{
		{"expired", valid, issuedAt.Add(25 * time.Hour)},
		{"wrong secret", foreign, issuedAt},
		{"no expiry", noExp, issuedAt},
		{"no subject", noSub, issuedAt},
		{"wrong algorithm", hs512, issuedAt},
		{"garbage", "not.a.token", issuedAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			svc.now = func() time.Time { return now }

			_, err := svc.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
