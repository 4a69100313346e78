package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/metrics"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/render"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

const (
	defaultRecentLimit   = 5
	defaultUpcomingLimit = 5
)

// BoardAnnouncement pairs an announcement with its render plan.
type BoardAnnouncement struct {
	*model.Announcement
	Render render.Plan `json:"render"`
}

// Board is what a wall display shows.
type Board struct {
	Announcements []BoardAnnouncement `json:"announcements"`
	Events        []*model.Event      `json:"events"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// Summary is the role-shaped dashboard. Staff-only sections are nil for
// guests and users.
type Summary struct {
	Role       model.UserRole             `json:"role"`
	Recent     []*model.Announcement      `json:"recent"`
	Upcoming   []*model.Event             `json:"upcoming"`
	Totals     *model.ContentTotals       `json:"totals,omitempty"`
	TopContent []*model.ContentEngagement `json:"top_content,omitempty"`
	Analytics  *model.AnalyticsTotals     `json:"analytics,omitempty"`
	Users      map[model.UserRole]int64   `json:"users,omitempty"`
}

type DashboardService struct {
	store         *repository.Store
	location      *time.Location
	now           func() time.Time
	recentLimit   int
	upcomingLimit int
	logger        *zap.Logger
}

type DashboardOption func(*DashboardService)

func WithDashboardLimits(recent, upcoming int) DashboardOption {
	return func(s *DashboardService) {
		if recent > 0 {
			s.recentLimit = recent
		}
		if upcoming > 0 {
			s.upcomingLimit = upcoming
		}
	}
}

func WithDashboardLocation(loc *time.Location) DashboardOption {
	return func(s *DashboardService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithDashboardClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewDashboardService(store *repository.Store, logger *zap.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DashboardService{
		store:         store,
		location:      time.Local,
		now:           time.Now,
		recentLimit:   defaultRecentLimit,
		upcomingLimit: defaultUpcomingLimit,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recent returns the newest published announcements.
func (s *DashboardService) Recent(ctx context.Context, n int) ([]*model.Announcement, error) {
	items, err := s.store.Announcements.List(ctx, repository.AnnouncementListFilter{
		PublishedOnly: true,
		Pagination:    pageOf(n, 0),
	})
	if err != nil {
		return nil, upstream("load recent announcements", err)
	}
	return items, nil
}

// Upcoming returns published events from the start of today onwards.
func (s *DashboardService) Upcoming(ctx context.Context, n int) ([]*model.Event, error) {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	items, err := s.store.Events.List(ctx, repository.EventListFilter{
		From:          &today,
		PublishedOnly: true,
		Pagination:    pageOf(n, 0),
	})
	if err != nil {
		return nil, upstream("load upcoming events", err)
	}
	return items, nil
}

func (s *DashboardService) Totals(ctx context.Context) (*model.ContentTotals, error) {
	var totals model.ContentTotals

	allAnnouncements, err := s.store.Announcements.Count(ctx, repository.AnnouncementListFilter{})
	if err != nil {
		return nil, upstream("count announcements", err)
	}
	if totals.AnnouncementsPublished, err = s.store.Announcements.Count(ctx, repository.AnnouncementListFilter{PublishedOnly: true}); err != nil {
		return nil, upstream("count published announcements", err)
	}
	totals.AnnouncementsDraft = allAnnouncements - totals.AnnouncementsPublished

	allEvents, err := s.store.Events.Count(ctx, repository.EventListFilter{})
	if err != nil {
		return nil, upstream("count events", err)
	}
	if totals.EventsPublished, err = s.store.Events.Count(ctx, repository.EventListFilter{PublishedOnly: true}); err != nil {
		return nil, upstream("count published events", err)
	}
	totals.EventsDraft = allEvents - totals.EventsPublished

	if totals.Comments, err = s.store.Comments.Count(ctx); err != nil {
		return nil, upstream("count comments", err)
	}
	if totals.Reactions, err = s.store.Reactions.Count(ctx); err != nil {
		return nil, upstream("count reactions", err)
	}
	if totals.Users, err = s.store.Users.Count(ctx, repository.UserListFilter{}); err != nil {
		return nil, upstream("count users", err)
	}
	return &totals, nil
}

func (s *DashboardService) TopContent(ctx context.Context, n int) ([]*model.ContentEngagement, error) {
	if n <= 0 {
		n = defaultTopContent
	}
	items, err := s.store.Analytics.TopContent(ctx, n)
	if err != nil {
		return nil, upstream("rank content", err)
	}
	return items, nil
}

func (s *DashboardService) AnalyticsTotals(ctx context.Context, from, to *time.Time) (*model.AnalyticsTotals, error) {
	totals, err := s.store.Analytics.Totals(ctx, from, to)
	if err != nil {
		return nil, upstream("sum analytics", err)
	}
	return totals, nil
}

// UserCounts counts accounts per role.
func (s *DashboardService) UserCounts(ctx context.Context) (map[model.UserRole]int64, error) {
	out := make(map[model.UserRole]int64, 3)
	for _, role := range []model.UserRole{model.UserRoleUser, model.UserRoleAdmin, model.UserRoleSuperAdmin} {
		role := role
		n, err := s.store.Users.Count(ctx, repository.UserListFilter{Role: &role})
		if err != nil {
			return nil, upstream("count users", err)
		}
		out[role] = n
	}
	return out, nil
}

// Summary composes the dashboard for the caller's role.
func (s *DashboardService) Summary(ctx context.Context, actor *policy.Subject) (*Summary, error) {
	out := &Summary{Role: policy.Guest}
	if actor != nil {
		out.Role = actor.Role
	}

	var err error
	if out.Recent, err = s.Recent(ctx, s.recentLimit); err != nil {
		return nil, err
	}
	if out.Upcoming, err = s.Upcoming(ctx, s.upcomingLimit); err != nil {
		return nil, err
	}
	if policy.Authorize(actor, policy.ActionView, policy.ResourceAnalytics) != nil {
		return out, nil
	}

	if out.Totals, err = s.Totals(ctx); err != nil {
		return nil, err
	}
	if out.TopContent, err = s.TopContent(ctx, defaultTopContent); err != nil {
		return nil, err
	}
	monthAgo := s.now().UTC().AddDate(0, 0, -30)
	if out.Analytics, err = s.AnalyticsTotals(ctx, &monthAgo, nil); err != nil {
		return nil, err
	}
	if policy.Authorize(actor, policy.ActionView, policy.ResourceUser) == nil {
		if out.Users, err = s.UserCounts(ctx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Board returns the published feed for displays with every announcement's
// layout already selected.
func (s *DashboardService) Board(ctx context.Context, announcements, events int) (*Board, error) {
	if announcements <= 0 {
		announcements = repository.DefaultLimit
	}
	if events <= 0 {
		events = repository.DefaultLimit
	}
	recent, err := s.Recent(ctx, announcements)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.Upcoming(ctx, events)
	if err != nil {
		return nil, err
	}

	board := &Board{
		Announcements: make([]BoardAnnouncement, 0, len(recent)),
		Events:        upcoming,
		GeneratedAt:   s.now().UTC(),
	}
	for _, item := range recent {
		board.Announcements = append(board.Announcements, BoardAnnouncement{Announcement: item, Render: render.PlanFor(item)})
	}
	return board, nil
}

// RefreshGauges updates the board content gauges; the scheduler calls it.
func (s *DashboardService) RefreshGauges(ctx context.Context) error {
	totals, err := s.Totals(ctx)
	if err != nil {
		return err
	}
	metrics.SetBoardContent(string(model.ContentAnnouncement), "published", totals.AnnouncementsPublished)
	metrics.SetBoardContent(string(model.ContentAnnouncement), "draft", totals.AnnouncementsDraft)
	metrics.SetBoardContent(string(model.ContentEvent), "published", totals.EventsPublished)
	metrics.SetBoardContent(string(model.ContentEvent), "draft", totals.EventsDraft)
	return nil
}
