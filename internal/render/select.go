package render

import (
	"strings"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

// Select picks the layout for an announcement. It never fails.
func Select(a *model.Announcement) Layout {
	if a == nil {
		return Unsupported{}
	}
	text := Text{Title: a.Title, Content: a.Content, Category: a.Category}

	switch a.DisplayType {
	case model.DisplayStandard, "":
		return Standard{Text: text}
	case model.DisplayCard:
		return Card{Text: text, Image: imageOrPlaceholder(a.Image)}
	case model.DisplayBanner:
		return Banner{Text: text, Image: imageOrPlaceholder(a.Image)}
	case model.DisplayGrid:
		return Grid{Text: text, Images: imagesOrPlaceholder(a.Images)}
	case model.DisplayImageCarousel:
		return Carousel{Text: text, Images: imagesOrPlaceholder(a.Images)}
	case model.DisplayImageHotspots:
		markers := make([]model.Hotspot, 0, len(a.Hotspots))
		markers = append(markers, a.Hotspots...)
		return Hotspots{Text: text, Image: imageOrPlaceholder(a.Image), Markers: markers}
	case model.DisplayTimelineView:
		entries := make([]model.TimelineEvent, 0, len(a.TimelineEvents))
		entries = append(entries, a.TimelineEvents...)
		return Timeline{Text: text, Entries: entries}
	default:
		return Unsupported{DisplayType: a.DisplayType}
	}
}

func imageOrPlaceholder(image *string) string {
	if image == nil || strings.TrimSpace(*image) == "" {
		return PlaceholderImage
	}
	return *image
}

func imagesOrPlaceholder(images []string) []string {
	out := make([]string, 0, len(images))
	for _, image := range images {
		if strings.TrimSpace(image) != "" {
			out = append(out, image)
		}
	}
	if len(out) == 0 {
		return []string{PlaceholderImage}
	}
	return out
}

// Plan is the JSON form of a layout sent to board clients.
type Plan struct {
	Layout Kind   `json:"layout"`
	View   Layout `json:"view"`
}

func PlanFor(a *model.Announcement) Plan {
	layout := Select(a)
	return Plan{Layout: layout.Kind(), View: layout}
}
