package model

import (
	"time"

	"github.com/google/uuid"
)

// Analytics is one daily usage snapshot reported by a client.
type Analytics struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Date               time.Time `db:"date" json:"date"`
	ActiveUsers        int       `db:"active_users" json:"active_users"`
	NewUsers           int       `db:"new_users" json:"new_users"`
	PageViews          int       `db:"page_views" json:"page_views"`
	DesktopUsers       int       `db:"desktop_users" json:"desktop_users"`
	MobileUsers        int       `db:"mobile_users" json:"mobile_users"`
	TabletUsers        int       `db:"tablet_users" json:"tablet_users"`
	AvgSessionDuration float64   `db:"avg_session_duration" json:"avg_session_duration"`
	BounceRate         float64   `db:"bounce_rate" json:"bounce_rate"`
	RecordedByID       uuid.UUID `db:"recorded_by_id" json:"recorded_by_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

type AnalyticsTotals struct {
	Days               int     `json:"days"`
	ActiveUsers        int64   `json:"active_users"`
	NewUsers           int64   `json:"new_users"`
	PageViews          int64   `json:"page_views"`
	DesktopUsers       int64   `json:"desktop_users"`
	MobileUsers        int64   `json:"mobile_users"`
	TabletUsers        int64   `json:"tablet_users"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	BounceRate         float64 `json:"bounce_rate"`
}

// ContentEngagement ranks a piece of content by how much interaction it got.
type ContentEngagement struct {
	Kind      ContentKind `json:"kind"`
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	Published bool        `json:"published"`
	Comments  int64       `json:"comments"`
	Reactions int64       `json:"reactions"`
}

func (c ContentEngagement) Score() int64 {
	return c.Comments + c.Reactions
}

// ContentTotals backs the admin dashboard counters.
type ContentTotals struct {
	AnnouncementsPublished int64 `json:"announcements_published"`
	AnnouncementsDraft     int64 `json:"announcements_draft"`
	EventsPublished        int64 `json:"events_published"`
	EventsDraft            int64 `json:"events_draft"`
	Comments               int64 `json:"comments"`
	Reactions              int64 `json:"reactions"`
	Users                  int64 `json:"users"`
}
