package model

import (
	"time"

	"github.com/google/uuid"
)

type AnnouncementCategory string

const (
	CategoryImportant AnnouncementCategory = "important"
	CategoryEvent     AnnouncementCategory = "event"
	CategoryUpdate    AnnouncementCategory = "update"
	CategoryGeneral   AnnouncementCategory = "general"
)

func (c AnnouncementCategory) Valid() bool {
	switch c {
	case CategoryImportant, CategoryEvent, CategoryUpdate, CategoryGeneral:
		return true
	}
	return false
}

type DisplayType string

const (
	DisplayStandard      DisplayType = "standard"
	DisplayCard          DisplayType = "card"
	DisplayBanner        DisplayType = "banner"
	DisplayGrid          DisplayType = "grid"
	DisplayImageCarousel DisplayType = "image_carousel"
	DisplayImageHotspots DisplayType = "image_hotspots"
	DisplayTimelineView  DisplayType = "timeline_view"
)

func (d DisplayType) Valid() bool {
	switch d {
	case DisplayStandard, DisplayCard, DisplayBanner, DisplayGrid,
		DisplayImageCarousel, DisplayImageHotspots, DisplayTimelineView:
		return true
	}
	return false
}

// Hotspot coordinates are percentages of the base image.
type Hotspot struct {
	X           float64 `json:"x" validate:"gte=0,lte=100"`
	Y           float64 `json:"y" validate:"gte=0,lte=100"`
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description,omitempty" validate:"max=1000"`
}

type TimelineEvent struct {
	Date        string  `json:"date" validate:"required"`
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description,omitempty" validate:"max=2000"`
	Image       *string `json:"image,omitempty"`
}

type Announcement struct {
	ID             uuid.UUID            `db:"id" json:"id"`
	Title          string               `db:"title" json:"title"`
	Content        string               `db:"content" json:"content"`
	Category       AnnouncementCategory `db:"category" json:"category"`
	DisplayType    DisplayType          `db:"display_type" json:"display_type"`
	Date           time.Time            `db:"date" json:"date"`
	Published      bool                 `db:"published" json:"published"`
	AuthorID       uuid.UUID            `db:"author_id" json:"author_id"`
	Image          *string              `db:"image" json:"image,omitempty"`
	Images         []string             `db:"images" json:"images,omitempty"`
	Hotspots       []Hotspot            `db:"hotspots" json:"hotspots,omitempty"`
	TimelineEvents []TimelineEvent      `db:"timeline_events" json:"timeline_events,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updated_at"`
}

// NormalizePayload clears the payload fields that do not belong to the
// announcement's display type.
func (a *Announcement) NormalizePayload() {
	switch a.DisplayType {
	case DisplayCard, DisplayBanner:
		a.Images, a.Hotspots, a.TimelineEvents = nil, nil, nil
	case DisplayGrid, DisplayImageCarousel:
		a.Image, a.Hotspots, a.TimelineEvents = nil, nil, nil
	case DisplayImageHotspots:
		a.Images, a.TimelineEvents = nil, nil
	case DisplayTimelineView:
		a.Image, a.Images, a.Hotspots = nil, nil, nil
	default:
		a.Image, a.Images, a.Hotspots, a.TimelineEvents = nil, nil, nil, nil
	}
}
