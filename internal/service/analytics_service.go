package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

const defaultTopContent = 10

type AnalyticsInput struct {
	Date               string  `json:"date"`
	ActiveUsers        int     `json:"active_users" validate:"gte=0"`
	NewUsers           int     `json:"new_users" validate:"gte=0"`
	PageViews          int     `json:"page_views" validate:"gte=0"`
	DesktopUsers       int     `json:"desktop_users" validate:"gte=0"`
	MobileUsers        int     `json:"mobile_users" validate:"gte=0"`
	TabletUsers        int     `json:"tablet_users" validate:"gte=0"`
	AvgSessionDuration float64 `json:"avg_session_duration" validate:"gte=0"`
	BounceRate         float64 `json:"bounce_rate" validate:"gte=0,lte=100"`
}

// DateRange is an inclusive pair of calendar days; either end may be open.
type DateRange struct {
	From string
	To   string
}

// bounds turns the day range into [from, to+1day).
func (r DateRange) bounds() (*time.Time, *time.Time, error) {
	var from, to *time.Time
	v := &ValidationError{}
	if raw := strings.TrimSpace(r.From); raw != "" {
		start, _, err := DayBounds(raw, time.UTC)
		if err != nil {
			v.invalid("from")
		} else {
			from = &start
		}
	}
	if raw := strings.TrimSpace(r.To); raw != "" {
		_, end, err := DayBounds(raw, time.UTC)
		if err != nil {
			v.invalid("to")
		} else {
			to = &end
		}
	}
	if from != nil && to != nil && !from.Before(*to) {
		v.Reason = "from must not be after to"
	}
	if err := v.orNil(); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

type AnalyticsService struct {
	repo   repository.AnalyticsRepository
	logger *zap.Logger
}

func NewAnalyticsService(repo repository.AnalyticsRepository, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, logger: logger}
}

// Record stores a usage snapshot. Any signed-in user may report one; the
// date defaults to today (UTC).
func (s *AnalyticsService) Record(ctx context.Context, actor *policy.Subject, in AnalyticsInput) (*model.Analytics, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.ResourceAnalytics); err != nil {
		return nil, err
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if err := validateWith(in, func(v *ValidationError) {
		raw := strings.TrimSpace(in.Date)
		if raw == "" {
			return
		}
		start, _, err := DayBounds(raw, time.UTC)
		if err != nil {
			v.invalid("date")
			return
		}
		date = start
	}); err != nil {
		return nil, err
	}

	snapshot := &model.Analytics{
		Date:               date,
		ActiveUsers:        in.ActiveUsers,
		NewUsers:           in.NewUsers,
		PageViews:          in.PageViews,
		DesktopUsers:       in.DesktopUsers,
		MobileUsers:        in.MobileUsers,
		TabletUsers:        in.TabletUsers,
		AvgSessionDuration: in.AvgSessionDuration,
		BounceRate:         in.BounceRate,
		RecordedByID:       actor.ID,
	}
	if err := s.repo.Create(ctx, snapshot); err != nil {
		return nil, mapRepoError("record analytics", err, nil)
	}
	return snapshot, nil
}

func (s *AnalyticsService) List(ctx context.Context, actor *policy.Subject, days DateRange, limit, offset int) ([]*model.Analytics, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceAnalytics); err != nil {
		return nil, err
	}
	from, to, err := days.bounds()
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, repository.AnalyticsListFilter{From: from, To: to, Pagination: pageOf(limit, offset)})
	if err != nil {
		return nil, upstream("list analytics", err)
	}
	return items, nil
}

func (s *AnalyticsService) Totals(ctx context.Context, actor *policy.Subject, days DateRange) (*model.AnalyticsTotals, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceAnalytics); err != nil {
		return nil, err
	}
	from, to, err := days.bounds()
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, from, to)
	if err != nil {
		return nil, upstream("sum analytics", err)
	}
	return totals, nil
}

// Content ranks announcements and events by comments plus reactions.
func (s *AnalyticsService) Content(ctx context.Context, actor *policy.Subject, limit int) ([]*model.ContentEngagement, error) {
	if err := policy.Authorize(actor, policy.ActionView, policy.ResourceAnalytics); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopContent
	}
	if limit > repository.MaxLimit {
		limit = repository.MaxLimit
	}
	items, err := s.repo.TopContent(ctx, limit)
	if err != nil {
		return nil, upstream("rank content", err)
	}
	return items, nil
}
