package jwtutil

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestSignerIssueAndVerify(t *testing.T) {
	signer := NewSigner(newKey(t), time.Hour)

	token, expires, err := signer.Issue("user-1", "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestSignerRejectsExpiredAndForeignTokens(t *testing.T) {
	key := newKey(t)

	expired, _, err := NewSigner(key, -time.Minute).Issue("user-1", "USER")
	require.NoError(t, err)
	_, err = NewSigner(key, time.Minute).Verify(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign, _, err := NewSigner(newKey(t), time.Minute).Issue("user-1", "USER")
	require.NoError(t, err)
	_, err = NewSigner(key, time.Minute).Verify(foreign)
	assert.Error(t, err)
}

func TestSignerWithoutKey(t *testing.T) {
	signer := NewSigner(nil, time.Minute)
	_, _, err := signer.Issue("user-1", "USER")
	assert.ErrorIs(t, err, ErrNoSigningKey)
	_, err = signer.Verify("anything")
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestOpaqueTokensAreRandomAndDigested(t *testing.T) {
	a, err := NewOpaqueToken()
	require.NoError(t, err)
	b, err := NewOpaqueToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Len(t, Digest(a), 64)
	assert.Equal(t, Digest(a), Digest(a))
	assert.NotEqual(t, a, Digest(a))
}
