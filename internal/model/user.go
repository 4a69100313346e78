package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser       UserRole = "USER"
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleSuperAdmin UserRole = "SUPERADMIN"
)

// ParseRole accepts any casing ("admin", "Admin", "ADMIN") and returns the
// canonical upper-case role. ok is false for unknown values.
func ParseRole(raw string) (UserRole, bool) {
	switch UserRole(strings.ToUpper(strings.TrimSpace(raw))) {
	case UserRoleUser:
		return UserRoleUser, true
	case UserRoleAdmin:
		return UserRoleAdmin, true
	case UserRoleSuperAdmin:
		return UserRoleSuperAdmin, true
	default:
		return "", false
	}
}

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may manage board content.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PublicUser is the only user shape that leaves the service boundary.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func Sanitize(user *User) *PublicUser {
	if user == nil {
		return nil
	}
	return &PublicUser{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func SanitizeList(users []*User) []*PublicUser {
	out := make([]*PublicUser, 0, len(users))
	for _, user := range users {
		out = append(out, Sanitize(user))
	}
	return out
}

// SanitizeRecord drops every password-like key from a loosely typed user
// record, including nested maps. The input is not modified.
func SanitizeRecord(record map[string]any) map[string]any {
	if record == nil {
		return nil
	}
	out := make(map[string]any, len(record))
	for key, value := range record {
		if isPasswordKey(key) {
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			value = SanitizeRecord(nested)
		}
		out[key] = value
	}
	return out
}

func isPasswordKey(key string) bool {
	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(key))
	return strings.Contains(normalized, "password") || normalized == "passwd" || normalized == "pwd"
}
