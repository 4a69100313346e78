// Package policy decides which role may perform which action on which kind
// of board resource. It has no I/O and no state.
package policy

import (
	"errors"

	"github.com/google/uuid"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

var (
	// ErrUnauthorized means no identity was presented for a gated action.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the identity is known but not allowed.
	ErrForbidden = errors.New("permission denied")
)

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourceAnnouncement Resource = "announcement"
	ResourceEvent        Resource = "event"
	ResourceComment      Resource = "comment"
	ResourceReaction     Resource = "reaction"
	ResourceUser         Resource = "user"
	ResourceAnalytics    Resource = "analytics"
	ResourceSystem       Resource = "system"
)

// Guest is the role of a request without a resolved identity.
const Guest model.UserRole = ""

// CanPerform reports whether role may perform action on resource. Deleting
// comments and reactions is never granted by role; see CanDeleteOwned.
func CanPerform(role model.UserRole, action Action, resource Resource) bool {
	authenticated := role.Valid()

	switch resource {
	case ResourceAnnouncement, ResourceEvent:
		switch action {
		case ActionView:
			return true
		case ActionCreate, ActionUpdate, ActionDelete:
			return role.IsStaff()
		}
	case ResourceComment, ResourceReaction:
		switch action {
		case ActionView:
			return true
		case ActionCreate:
			return authenticated
		}
	case ResourceUser, ResourceSystem:
		return role == model.UserRoleSuperAdmin
	case ResourceAnalytics:
		switch action {
		case ActionCreate:
			return authenticated
		case ActionView:
			return role.IsStaff()
		}
	}

	return false
}

// CanDeleteOwned is a pure identity check. Role does not matter: a
// SUPERADMIN cannot delete someone else's comment.
func CanDeleteOwned(actorID, ownerID uuid.UUID) bool {
	return actorID != uuid.Nil && actorID == ownerID
}

// Subject is the resolved caller. A nil *Subject is a guest.
type Subject struct {
	ID   uuid.UUID
	Role model.UserRole
}

func SubjectOf(user *model.PublicUser) *Subject {
	if user == nil {
		return nil
	}
	return &Subject{ID: user.ID, Role: user.Role}
}

func (s *Subject) role() model.UserRole {
	if s == nil {
		return Guest
	}
	return s.Role
}

// Authorize turns a denied decision into ErrUnauthorized for guests and
// ErrForbidden for identified callers.
func Authorize(subject *Subject, action Action, resource Resource) error {
	if CanPerform(subject.role(), action, resource) {
		return nil
	}
	if subject == nil {
		return ErrUnauthorized
	}
	return ErrForbidden
}

// AuthorizeOwner applies CanDeleteOwned with the same error convention.
func AuthorizeOwner(subject *Subject, ownerID uuid.UUID) error {
	if subject == nil {
		return ErrUnauthorized
	}
	if !CanDeleteOwned(subject.ID, ownerID) {
		return ErrForbidden
	}
	return nil
}
