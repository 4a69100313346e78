package model

import (
	"time"

	"github.com/google/uuid"
)

type EventCategory string

const (
	EventCategoryConference EventCategory = "conference"
	EventCategoryWebinar    EventCategory = "webinar"
	EventCategoryCommunity  EventCategory = "community"
	EventCategoryInternal   EventCategory = "internal"
	EventCategoryProduct    EventCategory = "product"
)

func (c EventCategory) Valid() bool {
	switch c {
	case EventCategoryConference, EventCategoryWebinar, EventCategoryCommunity,
		EventCategoryInternal, EventCategoryProduct:
		return true
	}
	return false
}

type Event struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Location    string        `db:"location" json:"location"`
	Date        time.Time     `db:"date" json:"date"`
	StartTime   string        `db:"start_time" json:"start_time"`
	EndTime     string        `db:"end_time" json:"end_time"`
	Details     string        `db:"details" json:"details"`
	Category    EventCategory `db:"category" json:"category"`
	Department  *string       `db:"department" json:"department,omitempty"`
	Published   bool          `db:"published" json:"published"`
	CreatedByID uuid.UUID     `db:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}
