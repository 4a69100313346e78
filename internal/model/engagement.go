package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type ContentKind string

const (
	ContentAnnouncement ContentKind = "announcement"
	ContentEvent        ContentKind = "event"
)

var ErrInvalidTarget = errors.New("exactly one of announcement_id or event_id is required")

// ContentRef points at the announcement or event a comment or reaction is
// attached to. Exactly one of the ids is set.
type ContentRef struct {
	AnnouncementID *uuid.UUID `json:"announcement_id,omitempty"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
}

func AnnouncementRef(id uuid.UUID) ContentRef { return ContentRef{AnnouncementID: &id} }

func EventRef(id uuid.UUID) ContentRef { return ContentRef{EventID: &id} }

func (r ContentRef) Validate() error {
	if (r.AnnouncementID == nil) == (r.EventID == nil) {
		return ErrInvalidTarget
	}
	return nil
}

func (r ContentRef) Kind() ContentKind {
	if r.EventID != nil {
		return ContentEvent
	}
	return ContentAnnouncement
}

func (r ContentRef) ID() uuid.UUID {
	if r.EventID != nil {
		return *r.EventID
	}
	if r.AnnouncementID != nil {
		return *r.AnnouncementID
	}
	return uuid.Nil
}

type Comment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Content        string     `db:"content" json:"content"`
	AuthorID       uuid.UUID  `db:"author_id" json:"author_id"`
	AuthorName     string     `db:"author_name" json:"author_name,omitempty"`
	AnnouncementID *uuid.UUID `db:"announcement_id" json:"announcement_id,omitempty"`
	EventID        *uuid.UUID `db:"event_id" json:"event_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

func (c *Comment) Target() ContentRef {
	return ContentRef{AnnouncementID: c.AnnouncementID, EventID: c.EventID}
}

type ReactionType string

const (
	ReactionLike       ReactionType = "like"
	ReactionLove       ReactionType = "love"
	ReactionCelebrate  ReactionType = "celebrate"
	ReactionInsightful ReactionType = "insightful"
)

func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionCelebrate, ReactionInsightful:
		return true
	}
	return false
}

type Reaction struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	Type           ReactionType `db:"type" json:"type"`
	UserID         uuid.UUID    `db:"user_id" json:"user_id"`
	AnnouncementID *uuid.UUID   `db:"announcement_id" json:"announcement_id,omitempty"`
	EventID        *uuid.UUID   `db:"event_id" json:"event_id,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

func (r *Reaction) Target() ContentRef {
	return ContentRef{AnnouncementID: r.AnnouncementID, EventID: r.EventID}
}

// ReactionSummary counts reactions per type on one piece of content.
type ReactionSummary struct {
	Target ContentRef             `json:"target"`
	Counts map[ReactionType]int64 `json:"counts"`
	Total  int64                  `json:"total"`
}
