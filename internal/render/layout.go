// Package render selects how an announcement is displayed. Each display
// type maps to exactly one Layout variant carrying only the payload that
// variant needs.
package render

import (
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

// PlaceholderImage is shown when a visual layout has no image of its own.
const PlaceholderImage = "/static/placeholder.svg"

type Kind string

const (
	KindStandard    Kind = "standard"
	KindCard        Kind = "card"
	KindBanner      Kind = "banner"
	KindGrid        Kind = "grid"
	KindCarousel    Kind = "image_carousel"
	KindHotspots    Kind = "image_hotspots"
	KindTimeline    Kind = "timeline_view"
	KindUnsupported Kind = "unsupported"
)

// Layout is implemented only by the variants in this package.
type Layout interface {
	Kind() Kind
	sealed()
}

// Text is shared by every variant.
type Text struct {
	Title    string                     `json:"title"`
	Content  string                     `json:"content"`
	Category model.AnnouncementCategory `json:"category"`
}

type Standard struct {
	Text
}

type Card struct {
	Text
	Image string `json:"image"`
}

type Banner struct {
	Text
	Image string `json:"image"`
}

type Grid struct {
	Text
	Images []string `json:"images"`
}

type Carousel struct {
	Text
	Images []string `json:"images"`
}

// Hotspots renders the base image; Markers is empty when there is no overlay.
type Hotspots struct {
	Text
	Image   string          `json:"image"`
	Markers []model.Hotspot `json:"markers"`
}

type Timeline struct {
	Text
	Entries []model.TimelineEvent `json:"entries"`
}

// Unsupported is returned for display types this package does not know.
// It carries no content; displays render nothing for it.
type Unsupported struct {
	DisplayType model.DisplayType `json:"display_type,omitempty"`
}

func (Standard) Kind() Kind    { return KindStandard }
func (Card) Kind() Kind        { return KindCard }
func (Banner) Kind() Kind      { return KindBanner }
func (Grid) Kind() Kind        { return KindGrid }
func (Carousel) Kind() Kind    { return KindCarousel }
func (Hotspots) Kind() Kind    { return KindHotspots }
func (Timeline) Kind() Kind    { return KindTimeline }
func (Unsupported) Kind() Kind { return KindUnsupported }

func (Standard) sealed()    {}
func (Card) sealed()        {}
func (Banner) sealed()      {}
func (Grid) sealed()        {}
func (Carousel) sealed()    {}
func (Hotspots) sealed()    {}
func (Timeline) sealed()    {}
func (Unsupported) sealed() {}

// Next returns the index after current, wrapping to 0 past the last image.
func (c Carousel) Next(current int) int {
	return wrap(current+1, len(c.Images))
}

// Prev returns the index before current, wrapping to the last image.
func (c Carousel) Prev(current int) int {
	return wrap(current-1, len(c.Images))
}

func wrap(index, length int) int {
	if length <= 0 {
		return 0
	}
	index %= length
	if index < 0 {
		index += length
	}
	return index
}
