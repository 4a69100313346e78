package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

// auditor writes best-effort audit rows; a failed write is logged, never
// returned to the caller.
type auditor struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

func (a auditor) record(
	ctx context.Context,
	actor *policy.Subject,
	action string,
	resourceType string,
	resourceID string,
	oldValue map[string]any,
	newValue map[string]any,
) {
	if a.repo == nil {
		return
	}

	entry := &model.AuditLog{
		Action:       action,
		ResourceType: strPtr(resourceType),
		ResourceID:   strPtr(resourceID),
		OldValue:     oldValue,
		NewValue:     newValue,
		CreatedAt:    time.Now().UTC(),
	}
	if actor != nil {
		id, role := actor.ID, actor.Role
		entry.ActorID = &id
		entry.ActorRole = &role
	}
	if meta, ok := RequestMetaFrom(ctx); ok {
		entry.IPAddress = normalizeStringPointer(&meta.IP)
		entry.UserAgent = normalizeStringPointer(&meta.UserAgent)
	}

	if err := a.repo.Create(ctx, entry); err != nil && a.logger != nil {
		a.logger.Warn("write audit log failed",
			zap.String("action", action),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
	}
}

type requestMetaKey struct{}

// RequestMeta carries client details from the HTTP layer into audit rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}

func strPtr(v string) *string {
	return &v
}

type AuditQuery struct {
	ActorID      string
	ResourceType string
	From         time.Time
	To           time.Time
	Limit        int
	Offset       int
}

// AuditService reads the audit trail. Only SUPERADMIN may browse it.
type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) List(ctx context.Context, actor *policy.Subject, q AuditQuery) ([]*model.AuditLog, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceSystem); err != nil {
		return nil, err
	}

	filter := repository.AuditListFilter{Pagination: pageOf(q.Limit, q.Offset)}
	if raw := strings.TrimSpace(q.ActorID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalidInput("malformed id", "actor_id")
		}
		filter.ActorID = &id
	}
	filter.ResourceType = normalizeStringPointer(&q.ResourceType)
	if !q.From.IsZero() {
		from := q.From.UTC()
		filter.StartTime = &from
	}
	if !q.To.IsZero() {
		to := q.To.UTC()
		filter.EndTime = &to
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, upstream("list audit logs", err)
	}
	return items, nil
}
