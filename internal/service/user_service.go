package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

var (
	ErrSelfDeleteForbidden   = fmt.Errorf("cannot delete own account: %w", policy.ErrForbidden)
	ErrSelfDemotionForbidden = fmt.Errorf("cannot demote or deactivate own account: %w", policy.ErrForbidden)
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

// UpdateUserRequest patches only the fields that are set.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}

type UserQuery struct {
	Role    string
	Active  *bool
	Keyword string
	Limit   int
	Offset  int
}

// UserService is account administration. Every operation requires a
// SUPERADMIN caller.
type UserService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   PasswordHasher
	audit    auditor
	bus      *event.Bus
	logger   *zap.Logger
}

func NewUserService(store *repository.Store, hasher PasswordHasher, bus *event.Bus, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:    store.Users,
		sessions: store.Sessions,
		hasher:   hasher,
		audit:    auditor{repo: store.Audit, logger: logger},
		bus:      bus,
		logger:   logger,
	}
}

func (s *UserService) List(ctx context.Context, actor *policy.Subject, q UserQuery) ([]*model.PublicUser, int64, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceUser); err != nil {
		return nil, 0, err
	}

	filter := repository.UserListFilter{
		Active:     q.Active,
		Keyword:    normalizeStringPointer(&q.Keyword),
		Pagination: pageOf(q.Limit, q.Offset),
	}
	if strings.TrimSpace(q.Role) != "" {
		role, ok := model.ParseRole(q.Role)
		if !ok {
			return nil, 0, invalidInput("unknown role", "role")
		}
		filter.Role = &role
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, upstream("list users", err)
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, 0, upstream("count users", err)
	}
	return model.SanitizeList(users), total, nil
}

func (s *UserService) Get(ctx context.Context, actor *policy.Subject, rawID string) (*model.PublicUser, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceUser); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return model.Sanitize(user), nil
}

// Create adds an account with any role; role defaults to USER.
func (s *UserService) Create(ctx context.Context, actor *policy.Subject, req CreateUserRequest) (*model.PublicUser, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceUser); err != nil {
		return nil, err
	}

	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	role := model.UserRoleUser
	if err := validateWith(req, func(v *ValidationError) {
		if strings.TrimSpace(req.Role) == "" {
			return
		}
		parsed, ok := model.ParseRole(req.Role)
		if !ok {
			v.invalid("role")
			return
		}
		role = parsed
	}); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
		Active:       true,
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, upstream("create user", err)
	}

	s.audit.record(ctx, actor, "user.create", "user", user.ID.String(), nil, userSnapshot(user))
	s.publish(user, event.ActionCreated)
	return model.Sanitize(user), nil
}

// EnsureSuperAdmin creates the bootstrap superadmin unless the email is
// already registered. It bypasses authorization and is only reachable from
// the operator CLI.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, req CreateUserRequest) (*model.PublicUser, bool, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Role = string(model.UserRoleSuperAdmin)
	if err := validateWith(req, nil); err != nil {
		return nil, false, err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return model.Sanitize(existing), false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, upstream("find user", err)
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, false, err
	}
	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         model.UserRoleSuperAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, false, ErrEmailTaken
		}
		return nil, false, upstream("create user", err)
	}

	s.audit.record(ctx, nil, "user.bootstrap", "user", user.ID.String(), nil, userSnapshot(user))
	s.publish(user, event.ActionCreated)
	return model.Sanitize(user), true, nil
}

func (s *UserService) Update(ctx context.Context, actor *policy.Subject, rawID string, req UpdateUserRequest) (*model.PublicUser, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}

	var role *model.UserRole
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := validateWith(req, func(v *ValidationError) {
		if req.Name != nil && *req.Name == "" {
			v.missing("name")
		}
		if req.Role != nil {
			parsed, ok := model.ParseRole(*req.Role)
			if !ok {
				v.invalid("role")
				return
			}
			role = &parsed
		}
	}); err != nil {
		return nil, err
	}

	self := user.ID == actor.ID
	if self && ((role != nil && *role != user.Role) || (req.Active != nil && !*req.Active)) {
		return nil, ErrSelfDemotionForbidden
	}

	before := userSnapshot(user)
	revoke := false
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if role != nil {
		user.Role = *role
	}
	if req.Active != nil {
		revoke = revoke || (user.Active && !*req.Active)
		user.Active = *req.Active
	}
	if req.Password != nil {
		hash, err := s.hasher.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		revoke = true
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, mapRepoError("update user", err, ErrUserNotFound)
	}
	if revoke {
		if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
			s.logger.Warn("revoke sessions failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	s.audit.record(ctx, actor, "user.update", "user", user.ID.String(), before, userSnapshot(user))
	s.publish(user, event.ActionUpdated)
	return model.Sanitize(user), nil
}

// Delete refuses to remove the caller and users that still author content.
func (s *UserService) Delete(ctx context.Context, actor *policy.Subject, rawID string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceUser); err != nil {
		return err
	}
	user, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return ErrSelfDeleteForbidden
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrUserOwnsContent
		}
		return mapRepoError("delete user", err, ErrUserNotFound)
	}

	s.audit.record(ctx, actor, "user.delete", "user", user.ID.String(), userSnapshot(user), nil)
	s.publish(user, event.ActionDeleted)
	return nil
}

func (s *UserService) load(ctx context.Context, rawID string) (*model.User, error) {
	id, err := parseID(rawID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("find user", err, ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) publish(user *model.User, action event.ChangeAction) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.EventUserChanged, event.UserChangedPayload{UserID: user.ID, Action: action})
}

func userSnapshot(user *model.User) map[string]any {
	return map[string]any{
		"email":  user.Email,
		"name":   user.Name,
		"role":   user.Role,
		"active": user.Active,
	}
}
