package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeNeverSerializesPassword(t *testing.T) {
	user := &User{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		PasswordHash: "$2a$12$secret",
		Name:         "Ada",
		Role:         UserRoleAdmin,
		Active:       true,
	}

	for _, value := range []any{user, Sanitize(user), SanitizeList([]*User{user, nil})} {
		raw, err := json.Marshal(value)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "password")
		assert.NotContains(t, string(raw), "$2a$12$secret")
	}
	assert.Nil(t, Sanitize(nil))
}

func TestSanitizeRecordDropsPasswordLikeKeys(t *testing.T) {
	record := map[string]any{
		"email":         "ada@example.com",
		"password":      "plain",
		"Password_Hash": "hash",
		"pwd":           "x",
		"profile": map[string]any{
			"nick":         "ada",
			"old-password": "y",
		},
	}

	got := SanitizeRecord(record)
	assert.Equal(t, map[string]any{
		"email":   "ada@example.com",
		"profile": map[string]any{"nick": "ada"},
	}, got)
	assert.Contains(t, record, "password")
	assert.Nil(t, SanitizeRecord(nil))
}

func TestParseRoleIsCaseInsensitive(t *testing.T) {
	for _, raw := range []string{"admin", "ADMIN", " Admin "} {
		role, ok := ParseRole(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, UserRoleAdmin, role)
	}
	_, ok := ParseRole("owner")
	assert.False(t, ok)
}
