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

const (
	eventResourceType = "event"
	dayLayout         = "2006-01-02"
)

// EventInput is the full writable shape of an event. Date accepts a plain
// calendar day or an RFC 3339 timestamp.
type EventInput struct {
	Title      string              `json:"title" validate:"required,max=200"`
	Location   string              `json:"location" validate:"required,max=200"`
	Date       string              `json:"date" validate:"required"`
	StartTime  string              `json:"start_time" validate:"required,clock"`
	EndTime    string              `json:"end_time" validate:"required,clock"`
	Details    string              `json:"details" validate:"max=20000"`
	Category   model.EventCategory `json:"category" validate:"required"`
	Department *string             `json:"department" validate:"omitempty,max=120"`
	Published  *bool               `json:"published"`
}

func (in *EventInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.Details = strings.TrimSpace(in.Details)
	in.Category = model.EventCategory(strings.ToLower(strings.TrimSpace(string(in.Category))))
	in.Department = normalizeStringPointer(in.Department)
}

type EventQuery struct {
	Category *model.EventCategory
	// Day selects one local calendar day, "YYYY-MM-DD".
	Day           string
	Upcoming      bool
	IncludeDrafts bool
	Limit         int
	Offset        int
}

type EventService struct {
	repo     repository.EventRepository
	audit    auditor
	notify   contentNotifier
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

type EventOption func(*EventService)

// WithBoardLocation sets the timezone calendar days are interpreted in.
func WithBoardLocation(loc *time.Location) EventOption {
	return func(s *EventService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithEventClock(now func() time.Time) EventOption {
	return func(s *EventService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewEventService(
	repo repository.EventRepository,
	auditRepo repository.AuditRepository,
	bus *event.Bus,
	logger *zap.Logger,
	opts ...EventOption,
) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EventService{
		repo:     repo,
		audit:    auditor{repo: auditRepo, logger: logger},
		notify:   contentNotifier{bus: bus, logger: logger},
		location: time.Local,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DayBounds returns the half-open range [start of day, start of next day)
// for a "YYYY-MM-DD" date in loc.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation(dayLayout, strings.TrimSpace(day), loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

func (s *EventService) startOfToday() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

func (s *EventService) parseDate(raw string) (time.Time, bool) {
	if day, err := time.ParseInLocation(dayLayout, raw, s.location); err == nil {
		return day, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// List returns events in ascending date order.
func (s *EventService) List(ctx context.Context, actor *policy.Subject, q EventQuery) ([]*model.Event, int64, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceEvent); err != nil {
		return nil, 0, err
	}

	filter := repository.EventListFilter{
		Category:      q.Category,
		PublishedOnly: !(q.IncludeDrafts && canSeeDrafts(actor)),
		Pagination:    pageOf(q.Limit, q.Offset),
	}
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, 0, invalidInput("unknown category", "category")
	}
	if strings.TrimSpace(q.Day) != "" {
		from, to, err := DayBounds(q.Day, s.location)
		if err != nil {
			return nil, 0, invalidInput("date must be YYYY-MM-DD", "date")
		}
		filter.From, filter.To = &from, &to
	}
	if q.Upcoming {
		today := s.startOfToday()
		if filter.From == nil || filter.From.Before(today) {
			filter.From = &today
		}
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, upstream("list events", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, upstream("count events", err)
	}
	return items, total, nil
}

func (s *EventService) Get(ctx context.Context, actor *policy.Subject, rawID string) (*model.Event, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceEvent); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if !item.Published && !canSeeDrafts(actor) {
		return nil, ErrEventNotFound
	}
	return item, nil
}

func (s *EventService) validate(in EventInput) (time.Time, error) {
	var date time.Time
	err := validateWith(in, func(v *ValidationError) {
		if in.Category != "" && !in.Category.Valid() {
			v.invalid("category")
		}
		if in.Date != "" {
			parsed, ok := s.parseDate(in.Date)
			if !ok {
				v.invalid("date")
			}
			date = parsed
		}
		if clockPattern.MatchString(in.StartTime) && clockPattern.MatchString(in.EndTime) && in.EndTime < in.StartTime {
			v.invalid("end_time")
		}
	})
	return date, err
}

func (in EventInput) apply(e *model.Event, date time.Time) {
	e.Title = in.Title
	e.Location = in.Location
	e.Date = date.UTC()
	e.StartTime = in.StartTime
	e.EndTime = in.EndTime
	e.Details = in.Details
	e.Category = in.Category
	e.Department = in.Department
	if in.Published != nil {
		e.Published = *in.Published
	}
}

func (s *EventService) Create(ctx context.Context, actor *policy.Subject, in EventInput) (*model.Event, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceEvent); err != nil {
		return nil, err
	}
	in.normalize()
	date, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	item := &model.Event{CreatedByID: actor.ID}
	in.apply(item, date)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, mapRepoError("create event", err, ErrEventNotFound)
	}

	s.audit.record(ctx, actor, "event.create", eventResourceType, item.ID.String(), nil, eventSnapshot(item))
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentEvent,
		Action:    event.ActionCreated,
		ID:        item.ID,
		Title:     item.Title,
		Published: item.Published,
		ActorID:   actor.ID,
		Data:      item,
	})
	return item, nil
}

func (s *EventService) Update(ctx context.Context, actor *policy.Subject, rawID string, in EventInput) (*model.Event, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceEvent); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	in.normalize()
	date, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	before := eventSnapshot(item)
	in.apply(item, date)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, mapRepoError("update event", err, ErrEventNotFound)
	}

	s.audit.record(ctx, actor, "event.update", eventResourceType, item.ID.String(), before, eventSnapshot(item))
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentEvent,
		Action:    event.ActionUpdated,
		ID:        item.ID,
		Title:     item.Title,
		Published: item.Published,
		ActorID:   actor.ID,
		Data:      item,
	})
	return item, nil
}

func (s *EventService) SetPublished(ctx context.Context, actor *policy.Subject, rawID string, published bool) (*model.Event, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceEvent); err != nil {
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
		return nil, mapRepoError("publish event", err, ErrEventNotFound)
	}
	item.Published = published
	item.UpdatedAt = time.Now().UTC()

	action := publishAction(published)
	s.audit.record(ctx, actor, "event."+string(action), eventResourceType, item.ID.String(),
		map[string]any{"published": !published}, map[string]any{"published": published})
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentEvent,
		Action:    action,
		ID:        item.ID,
		Title:     item.Title,
		Published: published,
		ActorID:   actor.ID,
		Data:      item,
	})
	return item, nil
}

func (s *EventService) Delete(ctx context.Context, actor *policy.Subject, rawID string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceEvent); err != nil {
		return err
	}
	item, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return mapRepoError("delete event", err, ErrEventNotFound)
	}

	s.audit.record(ctx, actor, "event.delete", eventResourceType, item.ID.String(), eventSnapshot(item), nil)
	s.notify.changed(event.ContentChangedPayload{
		Kind:      model.ContentEvent,
		Action:    event.ActionDeleted,
		ID:        item.ID,
		Title:     item.Title,
		Published: item.Published,
		ActorID:   actor.ID,
	})
	return nil
}

func (s *EventService) load(ctx context.Context, rawID string) (*model.Event, error) {
	id, err := parseID(rawID, ErrEventNotFound)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("find event", err, ErrEventNotFound)
	}
	return item, nil
}
