package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

const announcementResourceType = "announcement"

// AnnouncementInput is the full writable shape of an announcement. Update
// replaces every field.
type AnnouncementInput struct {
	Title          string                     `json:"title" validate:"required,max=200"`
	Content        string                     `json:"content" validate:"required,max=20000"`
	Category       model.AnnouncementCategory `json:"category" validate:"required"`
	DisplayType    model.DisplayType          `json:"display_type" validate:"required"`
	Date           *time.Time                 `json:"date"`
	Published      *bool                      `json:"published"`
	Image          *string                    `json:"image"`
	Images         []string                   `json:"images" validate:"max=50"`
	Hotspots       []model.Hotspot            `json:"hotspots" validate:"max=50,dive"`
	TimelineEvents []model.TimelineEvent      `json:"timeline_events" validate:"max=100,dive"`
}

func (in *AnnouncementInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = model.AnnouncementCategory(strings.ToLower(strings.TrimSpace(string(in.Category))))
	in.DisplayType = model.DisplayType(strings.ToLower(strings.TrimSpace(string(in.DisplayType))))
	in.Image = normalizeStringPointer(in.Image)
}

func (in AnnouncementInput) validate() error {
	return validateWith(in, func(v *ValidationError) {
		if in.Category != "" && !in.Category.Valid() {
			v.invalid("category")
		}
		if in.DisplayType != "" && !in.DisplayType.Valid() {
			v.invalid("display_type")
		}
	})
}

func (in AnnouncementInput) apply(a *model.Announcement) {
	a.Title = in.Title
	a.Content = in.Content
	a.Category = in.Category
	a.DisplayType = in.DisplayType
	if in.Date != nil {
		a.Date = in.Date.UTC()
	}
	if a.Date.IsZero() {
		a.Date = time.Now().UTC()
	}
	if in.Published != nil {
		a.Published = *in.Published
	}
	a.Image = in.Image
	a.Images = append([]string(nil), in.Images...)
	a.Hotspots = append([]model.Hotspot(nil), in.Hotspots...)
	a.TimelineEvents = append([]model.TimelineEvent(nil), in.TimelineEvents...)
	a.NormalizePayload()
}

type AnnouncementQuery struct {
	Category      *model.AnnouncementCategory
	IncludeDrafts bool
	Limit         int
	Offset        int
}

type AnnouncementService struct {
	repo   repository.AnnouncementRepository
	audit  auditor
	notify contentNotifier
	logger *zap.Logger
}

func NewAnnouncementService(
	repo repository.AnnouncementRepository,
	auditRepo repository.AuditRepository,
	bus *event.Bus,
	logger *zap.Logger,
) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{
		repo:   repo,
		audit:  auditor{repo: auditRepo, logger: logger},
		notify: contentNotifier{bus: bus, logger: logger},
		logger: logger,
	}
}

// List returns announcements newest first. Drafts are included only when
// asked for by staff; everyone else silently gets published items.
func (s *AnnouncementService) List(ctx context.Context, actor *policy.Subject, q AnnouncementQuery) ([]*model.Announcement, int64, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceAnnouncement); err != nil {
		return nil, 0, err
	}

	filter := repository.AnnouncementListFilter{
		Category:      q.Category,
		PublishedOnly: !(q.IncludeDrafts && canSeeDrafts(actor)),
		Pagination:    pageOf(q.Limit, q.Offset),
	}
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, 0, invalidInput("unknown category", "category")
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, upstream("list announcements", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, upstream("count announcements", err)
	}
	return items, total, nil
}

// Get hides drafts from non-staff callers behind ErrAnnouncementNotFound.
func (s *AnnouncementService) Get(ctx context.Context, actor *policy.Subject, rawID string) (*model.Announcement, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceAnnouncement); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if !item.Published && !canSeeDrafts(actor) {
		return nil, ErrAnnouncementNotFound
	}
	return item, nil
}

func (s *AnnouncementService) Create(ctx context.Context, actor *policy.Subject, in AnnouncementInput) (*model.Announcement, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceAnnouncement); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	item := &model.Announcement{AuthorID: actor.ID}
	in.apply(item)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, mapRepoError("create announcement", err, ErrAnnouncementNotFound)
	}

	s.audit.record(ctx, actor, "announcement.create", announcementResourceType, item.ID.String(), nil, announcementSnapshot(item))
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentAnnouncement,
		Action:    event.ActionCreated,
		ID:        item.ID,
		Title:     item.Title,
		Published: item.Published,
		ActorID:   actor.ID,
		Data:      item,
	})
	return item, nil
}

func (s *AnnouncementService) Update(ctx context.Context, actor *policy.Subject, rawID string, in AnnouncementInput) (*model.Announcement, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceAnnouncement); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	before := announcementSnapshot(item)
	in.apply(item)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, mapRepoError("update announcement", err, ErrAnnouncementNotFound)
	}

	s.audit.record(ctx, actor, "announcement.update", announcementResourceType, item.ID.String(), before, announcementSnapshot(item))
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentAnnouncement,
		Action:    event.ActionUpdated,
		ID:        item.ID,
		Title:     item.Title,
		Published: item.Published,
		ActorID:   actor.ID,
		Data:      item,
	})
	return item, nil
}

// SetPublished flips visibility. Setting the current value is a no-op that
// still returns the announcement.
func (s *AnnouncementService) SetPublished(ctx context.Context, actor *policy.Subject, rawID string, published bool) (*model.Announcement, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceAnnouncement); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if item.Published == published {
		return item, nil
	}

	if err := s.repo.SetPublished(ctx, item.ID, published); err != nil {
		return nil, mapRepoError("publish announcement", err, ErrAnnouncementNotFound)
	}
	item.Published = published
	item.UpdatedAt = time.Now().UTC()

	action := publishAction(published)
	s.audit.record(ctx, actor, "announcement."+string(action), announcementResourceType, item.ID.String(),
		map[string]any{"published": !published}, map[string]any{"published": published})
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentAnnouncement,
		Action:    action,
		ID:        item.ID,
		Title:     item.Title,
		Published: published,
		ActorID:   actor.ID,
		Data:      item,
	})
	return item, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, actor *policy.Subject, rawID string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceAnnouncement); err != nil {
		return err
	}
	item, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return mapRepoError("delete announcement", err, ErrAnnouncementNotFound)
	}

	s.audit.record(ctx, actor, "announcement.delete", announcementResourceType, item.ID.String(), announcementSnapshot(item), nil)
	// Published carries the pre-delete visibility so guests drop the item.
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentAnnouncement,
		Action:    event.ActionDeleted,
		ID:        item.ID,
		Title:     item.Title,
		Published: item.Published,
		ActorID:   actor.ID,
	})
	return nil
}

func (s *AnnouncementService) load(ctx context.Context, rawID string) (*model.Announcement, error) {
	id, err := parseID(rawID, ErrAnnouncementNotFound)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("find announcement", err, ErrAnnouncementNotFound)
	}
	return item, nil
}
