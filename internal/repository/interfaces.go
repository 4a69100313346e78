package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

const (
	DefaultLimit = 20
	MaxLimit     = 200
)

type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

// Normalize clamps the page to [1, MaxLimit] rows with a non-negative offset.
func (p Pagination) Normalize() (int32, int32) {
	limit, offset := p.Limit, p.Offset
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type UserListFilter struct {
	Role       *model.UserRole `json:"role,omitempty"`
	Active     *bool           `json:"active,omitempty"`
	Keyword    *string         `json:"keyword,omitempty"`
	Pagination Pagination      `json:"pagination"`
}

type AnnouncementListFilter struct {
	Category      *model.AnnouncementCategory `json:"category,omitempty"`
	PublishedOnly bool                        `json:"published_only"`
	Pagination    Pagination                  `json:"pagination"`
}

// EventListFilter selects events whose date falls in [From, To).
type EventListFilter struct {
	Category      *model.EventCategory `json:"category,omitempty"`
	From          *time.Time           `json:"from,omitempty"`
	To            *time.Time           `json:"to,omitempty"`
	PublishedOnly bool                 `json:"published_only"`
	Pagination    Pagination           `json:"pagination"`
}

type AnalyticsListFilter struct {
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type AuditListFilter struct {
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
	ResourceType *string    `json:"resource_type,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Pagination   Pagination `json:"pagination"`
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserListFilter) ([]*model.User, error)
	Count(ctx context.Context, filter UserListFilter) (int64, error)
}

type AnnouncementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
	Create(ctx context.Context, announcement *model.Announcement) error
	Update(ctx context.Context, announcement *model.Announcement) error
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter AnnouncementListFilter) ([]*model.Announcement, error)
	Count(ctx context.Context, filter AnnouncementListFilter) (int64, error)
}

type EventRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter EventListFilter) ([]*model.Event, error)
	Count(ctx context.Context, filter EventListFilter) (int64, error)
}

type CommentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	ListByTarget(ctx context.Context, target model.ContentRef, page Pagination) ([]*model.Comment, error)
	Create(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type ReactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reaction, error)
	Create(ctx context.Context, reaction *model.Reaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByTarget(ctx context.Context, target model.ContentRef) (map[model.ReactionType]int64, error)
	Count(ctx context.Context) (int64, error)
}

type AnalyticsRepository interface {
	Create(ctx context.Context, snapshot *model.Analytics) error
	List(ctx context.Context, filter AnalyticsListFilter) ([]*model.Analytics, error)
	Totals(ctx context.Context, from, to *time.Time) (*model.AnalyticsTotals, error)
	TopContent(ctx context.Context, limit int) ([]*model.ContentEngagement, error)
}

type SessionRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// Rotate atomically replaces the token identified by oldHash.
	Rotate(ctx context.Context, oldHash string, next *model.RefreshToken) error
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filter AuditListFilter) ([]*model.AuditLog, error)
}

// Store bundles the repositories a running board needs.
type Store struct {
	Users         UserRepository
	Announcements AnnouncementRepository
	Events        EventRepository
	Comments      CommentRepository
	Reactions     ReactionRepository
	Analytics     AnalyticsRepository
	Sessions      SessionRepository
	Audit         AuditRepository
}
