package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
	jwtutil "github.com/janzenegnisaban/vision-board-sub000/pkg/jwt"
)

const (
	defaultAccessTokenTTL  = 2 * time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultBcryptCost      = 12
)

var (
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials: %w", policy.ErrUnauthorized)
	ErrAccountInactive     = fmt.Errorf("account inactive: %w", policy.ErrForbidden)
	ErrSessionInvalid      = fmt.Errorf("session invalid: %w", policy.ErrUnauthorized)
	ErrRefreshTokenInvalid = fmt.Errorf("refresh token invalid: %w", policy.ErrUnauthorized)
	ErrRefreshTokenExpired = fmt.Errorf("refresh token expired: %w", policy.ErrUnauthorized)
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
}

// Session is the credential pair handed to a client after login.
type Session struct {
	User             *model.PublicUser `json:"user"`
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	AccessExpiresAt  time.Time         `json:"access_expires_at"`
	RefreshExpiresAt time.Time         `json:"refresh_expires_at"`
}

// AuthService is the session and identity provider. It never trusts a
// token's role: every resolution re-reads the user row.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	audit      auditor
	signer     *jwtutil.Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	logger     *zap.Logger

	// timingHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	timingHash []byte
}

type AuthOption func(*AuthService)

func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func WithTokenTTL(access, refresh time.Duration) AuthOption {
	return func(s *AuthService) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

func WithAuthLogger(logger *zap.Logger) AuthOption {
	return func(s *AuthService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	auditRepo repository.AuditRepository,
	privateKey *rsa.PrivateKey,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:      users,
		sessions:   sessions,
		accessTTL:  defaultAccessTokenTTL,
		refreshTTL: defaultRefreshTokenTTL,
		bcryptCost: DefaultBcryptCost,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = auditor{repo: auditRepo, logger: s.logger}
	s.signer = jwtutil.NewSigner(privateKey, s.accessTTL)
	s.timingHash, _ = bcrypt.GenerateFromPassword([]byte("visionboard-timing-equalizer"), s.bcryptCost)
	return s
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable; an inactive account is reported only after the
// password matched.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.PublicUser, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.timingHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, upstream("find user by email", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}

	return model.Sanitize(user), nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := s.StartSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, policy.SubjectOf(user), "user.login", "user", user.ID.String(), nil, nil)
	return session, nil
}

// Register creates an active USER account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.PublicUser, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, upstream("find user by email", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         model.UserRoleUser,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, upstream("create user", err)
	}

	public := model.Sanitize(user)
	s.audit.record(ctx, policy.SubjectOf(public), "user.register", "user", user.ID.String(), nil, map[string]any{
		"email": user.Email,
		"role":  user.Role,
	})
	return public, nil
}

// StartSession issues an access token and a stored refresh token.
func (s *AuthService) StartSession(ctx context.Context, user *model.PublicUser) (*Session, error) {
	if user == nil {
		return nil, ErrSessionInvalid
	}

	now := time.Now().UTC()
	accessToken, accessExpires, err := s.signer.Issue(user.ID.String(), string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwtutil.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	record := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: jwtutil.Digest(refreshToken),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, record); err != nil {
		return nil, upstream("store refresh token", err)
	}

	return &Session{
		User:             user,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpires,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

// ResolveSession loads the live user behind an id. Missing, malformed and
// inactive ids all resolve to nil without an error.
func (s *AuthService) ResolveSession(ctx context.Context, userID string) (*model.PublicUser, error) {
	id, err := parseID(userID, ErrSessionInvalid)
	if err != nil {
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, upstream("resolve session", err)
	}
	if !user.Active {
		return nil, nil
	}

	return model.Sanitize(user), nil
}

// VerifyAccessToken checks the token signature and then resolves its
// subject against the current user row.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*model.PublicUser, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrSessionInvalid
	}

	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	user, err := s.ResolveSession(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionInvalid
	}
	return user, nil
}

// Refresh rotates a refresh token and issues a new access token for the
// current state of the user row.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrRefreshTokenInvalid
	}
	tokenHash := jwtutil.Digest(refreshToken)

	stored, err := s.sessions.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, upstream("find refresh token", err)
	}

	now := time.Now().UTC()
	if !stored.ExpiresAt.After(now) {
		_ = s.sessions.DeleteByHash(ctx, tokenHash)
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.ResolveSession(ctx, stored.UserID.String())
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.sessions.DeleteByUser(ctx, stored.UserID)
		return nil, ErrSessionInvalid
	}

	accessToken, accessExpires, err := s.signer.Issue(user.ID.String(), string(user.Role))
	if err != nil {
		return nil, err
	}
	nextToken, err := jwtutil.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	next := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: jwtutil.Digest(nextToken),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.sessions.Rotate(ctx, tokenHash, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, upstream("rotate refresh token", err)
	}

	return &Session{
		User:             user,
		AccessToken:      accessToken,
		RefreshToken:     nextToken,
		AccessExpiresAt:  accessExpires,
		RefreshExpiresAt: next.ExpiresAt,
	}, nil
}

// Logout forgets the refresh token. Unknown or empty tokens are not errors.
func (s *AuthService) Logout(ctx context.Context, actor *model.PublicUser, refreshToken string) error {
	if strings.TrimSpace(refreshToken) != "" {
		err := s.sessions.DeleteByHash(ctx, jwtutil.Digest(refreshToken))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return upstream("delete refresh token", err)
		}
	}
	if actor != nil {
		s.audit.record(ctx, policy.SubjectOf(actor), "user.logout", "user", actor.ID.String(), nil, nil)
	}
	return nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePassword also revokes every refresh token of the user.
func (s *AuthService) ChangePassword(ctx context.Context, actor *model.PublicUser, req ChangePasswordRequest) error {
	if actor == nil {
		return ErrSessionInvalid
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return mapRepoError("find user", err, ErrUserNotFound)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoError("update password", err, ErrUserNotFound)
	}
	if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		return upstream("revoke sessions", err)
	}

	s.audit.record(ctx, policy.SubjectOf(actor), "user.password.change", "user", user.ID.String(), nil, nil)
	return nil
}

// PurgeExpiredSessions is run by the scheduler.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, upstream("purge refresh tokens", err)
	}
	return removed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
