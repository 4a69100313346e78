package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

// targetResolver checks that the content a comment or reaction points at
// exists and is visible to the caller.
type targetResolver struct {
	announcements repository.AnnouncementRepository
	events        repository.EventRepository
}

// published loads the target and reports whether it is published.
func (r targetResolver) published(ctx context.Context, target model.ContentRef) (bool, error) {
	if err := target.Validate(); err != nil {
		return false, invalidInput(err.Error(), "announcement_id", "event_id")
	}
	if target.Kind() == model.ContentEvent {
		item, err := r.events.FindByID(ctx, target.ID())
		if err != nil {
			return false, mapRepoError("find event", err, ErrEventNotFound)
		}
		return item.Published, nil
	}
	item, err := r.announcements.FindByID(ctx, target.ID())
	if err != nil {
		return false, mapRepoError("find announcement", err, ErrAnnouncementNotFound)
	}
	return item.Published, nil
}

// resolve is published plus visibility: drafts look absent to non-staff
// callers.
func (r targetResolver) resolve(ctx context.Context, actor *policy.Subject, target model.ContentRef) (bool, error) {
	published, err := r.published(ctx, target)
	if err != nil {
		return false, err
	}
	if !published && !canSeeDrafts(actor) {
		if target.Kind() == model.ContentEvent {
			return false, ErrEventNotFound
		}
		return false, ErrAnnouncementNotFound
	}
	return published, nil
}

// ParseTarget builds a ContentRef from raw ids; exactly one must be set.
func ParseTarget(announcementID, eventID string) (model.ContentRef, error) {
	announcementID, eventID = strings.TrimSpace(announcementID), strings.TrimSpace(eventID)
	if (announcementID == "") == (eventID == "") {
		return model.ContentRef{}, invalidInput(model.ErrInvalidTarget.Error(), "announcement_id", "event_id")
	}
	if announcementID != "" {
		id, err := uuid.Parse(announcementID)
		if err != nil {
			return model.ContentRef{}, invalidInput("malformed id", "announcement_id")
		}
		return model.AnnouncementRef(id), nil
	}
	id, err := uuid.Parse(eventID)
	if err != nil {
		return model.ContentRef{}, invalidInput("malformed id", "event_id")
	}
	return model.EventRef(id), nil
}

type CommentInput struct {
	Content string           `json:"content" validate:"required,max=2000"`
	Target  model.ContentRef `json:"-"`
}

type CommentService struct {
	comments repository.CommentRepository
	targets  targetResolver
	audit    auditor
	notify   contentNotifier
	logger   *zap.Logger
}

func NewCommentService(store *repository.Store, bus *event.Bus, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		comments: store.Comments,
		targets:  targetResolver{announcements: store.Announcements, events: store.Events},
		audit:    auditor{repo: store.Audit, logger: logger},
		notify:   contentNotifier{bus: bus, logger: logger},
		logger:   logger,
	}
}

// List returns a target's comments oldest first.
func (s *CommentService) List(ctx context.Context, actor *policy.Subject, target model.ContentRef, limit, offset int) ([]*model.Comment, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceComment); err != nil {
		return nil, err
	}
	if _, err := s.targets.resolve(ctx, actor, target); err != nil {
		return nil, err
	}
	items, err := s.comments.ListByTarget(ctx, target, pageOf(limit, offset))
	if err != nil {
		return nil, upstream("list comments", err)
	}
	return items, nil
}

func (s *CommentService) Create(ctx context.Context, actor *policy.Subject, in CommentInput) (*model.Comment, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceComment); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	published, err := s.targets.resolve(ctx, actor, in.Target)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Content:        in.Content,
		AuthorID:       actor.ID,
		AnnouncementID: in.Target.AnnouncementID,
		EventID:        in.Target.EventID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapRepoError("create comment", err, ErrCommentNotFound)
	}
	if stored, err := s.comments.FindByID(ctx, comment.ID); err == nil {
		comment = stored
	}

	s.audit.record(ctx, actor, "comment.create", "comment", comment.ID.String(), nil, map[string]any{
		"target_kind": in.Target.Kind(),
		"target_id":   in.Target.ID().String(),
	})
	s.notify.engagement(event.EngagementChangedPayload{
		Target:    in.Target,
		Kind:      "comment",
		Action:    event.ActionCreated,
		ID:        comment.ID,
		Published: published,
	})
	return comment, nil
}

// Delete is allowed for the author only, whatever their role.
func (s *CommentService) Delete(ctx context.Context, actor *policy.Subject, rawID string) error {
	if actor == nil {
		return policy.ErrUnauthorized
	}
	id, err := parseID(rawID, ErrCommentNotFound)
	if err != nil {
		return err
	}
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return mapRepoError("find comment", err, ErrCommentNotFound)
	}
	if err := policy.AuthorizeOwner(actor, comment.AuthorID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return mapRepoError("delete comment", err, ErrCommentNotFound)
	}

	published, _ := s.targets.published(ctx, comment.Target())
	s.audit.record(ctx, actor, "comment.delete", "comment", comment.ID.String(), map[string]any{"content": comment.Content}, nil)
	s.notify.engagement(event.EngagementChangedPayload{
		Target:    comment.Target(),
		Kind:      "comment",
		Action:    event.ActionDeleted,
		ID:        comment.ID,
		Published: published,
	})
	return nil
}

type ReactionInput struct {
	Type   model.ReactionType `json:"type" validate:"required"`
	Target model.ContentRef   `json:"-"`
}

type ReactionService struct {
	reactions repository.ReactionRepository
	targets   targetResolver
	audit     auditor
	notify    contentNotifier
	logger    *zap.Logger
}

func NewReactionService(store *repository.Store, bus *event.Bus, logger *zap.Logger) *ReactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReactionService{
		reactions: store.Reactions,
		targets:   targetResolver{announcements: store.Announcements, events: store.Events},
		audit:     auditor{repo: store.Audit, logger: logger},
		notify:    contentNotifier{bus: bus, logger: logger},
		logger:    logger,
	}
}

// Summary counts reactions per type; every known type is present.
func (s *ReactionService) Summary(ctx context.Context, actor *policy.Subject, target model.ContentRef) (*model.ReactionSummary, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceReaction); err != nil {
		return nil, err
	}
	if _, err := s.targets.resolve(ctx, actor, target); err != nil {
		return nil, err
	}
	counts, err := s.reactions.CountByTarget(ctx, target)
	if err != nil {
		return nil, upstream("count reactions", err)
	}

	summary := &model.ReactionSummary{
		Target: target,
		Counts: map[model.ReactionType]int64{
			model.ReactionLike:       0,
			model.ReactionLove:       0,
			model.ReactionCelebrate:  0,
			model.ReactionInsightful: 0,
		},
	}
	for reactionType, n := range counts {
		summary.Counts[reactionType] = n
		summary.Total += n
	}
	return summary, nil
}

func (s *ReactionService) Add(ctx context.Context, actor *policy.Subject, in ReactionInput) (*model.Reaction, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceReaction); err != nil {
		return nil, err
	}
	in.Type = model.ReactionType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if err := validateWith(in, func(v *ValidationError) {
		if in.Type != "" && !in.Type.Valid() {
			v.invalid("type")
		}
	}); err != nil {
		return nil, err
	}
	published, err := s.targets.resolve(ctx, actor, in.Target)
	if err != nil {
		return nil, err
	}

	reaction := &model.Reaction{
		Type:           in.Type,
		UserID:         actor.ID,
		AnnouncementID: in.Target.AnnouncementID,
		EventID:        in.Target.EventID,
	}
	if err := s.reactions.Create(ctx, reaction); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateReaction
		}
		return nil, mapRepoError("create reaction", err, ErrReactionNotFound)
	}

	s.notify.engagement(event.EngagementChangedPayload{
		Target:    in.Target,
		Kind:      "reaction",
		Action:    event.ActionCreated,
		ID:        reaction.ID,
		Published: published,
	})
	return reaction, nil
}

// Remove is allowed for the reacting user only.
func (s *ReactionService) Remove(ctx context.Context, actor *policy.Subject, rawID string) error {
	if actor == nil {
		return policy.ErrUnauthorized
	}
	id, err := parseID(rawID, ErrReactionNotFound)
	if err != nil {
		return err
	}
	reaction, err := s.reactions.FindByID(ctx, id)
	if err != nil {
		return mapRepoError("find reaction", err, ErrReactionNotFound)
	}
	if err := policy.AuthorizeOwner(actor, reaction.UserID); err != nil {
		return err
	}
	if err := s.reactions.Delete(ctx, reaction.ID); err != nil {
		return mapRepoError("delete reaction", err, ErrReactionNotFound)
	}

	published, _ := s.targets.published(ctx, reaction.Target())
	s.notify.engagement(event.EngagementChangedPayload{
		Target:    reaction.Target(),
		Kind:      "reaction",
		Action:    event.ActionDeleted,
		ID:        reaction.ID,
		Published: published,
	})
	return nil
}
