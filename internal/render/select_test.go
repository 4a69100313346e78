package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

func strPtr(v string) *string { return &v }

func TestSelectCoversEveryDisplayType(t *testing.T) {
	cases := map[model.DisplayType]Kind{
		model.DisplayStandard:      KindStandard,
		model.DisplayCard:          KindCard,
		model.DisplayBanner:        KindBanner,
		model.DisplayGrid:          KindGrid,
		model.DisplayImageCarousel: KindCarousel,
		model.DisplayImageHotspots: KindHotspots,
		model.DisplayTimelineView:  KindTimeline,
		"polaroid_wall":            KindUnsupported,
	}
	for displayType, want := range cases {
		got := Select(&model.Announcement{Title: "t", DisplayType: displayType})
		assert.Equalf(t, want, got.Kind(), "display type %q", displayType)
	}
}

func TestUnknownDisplayTypeRendersNothing(t *testing.T) {
	layout := Select(&model.Announcement{Title: "Quarterly", Content: "body", DisplayType: "polaroid_wall"})
	unsupported, ok := layout.(Unsupported)
	require.True(t, ok)
	assert.Equal(t, model.DisplayType("polaroid_wall"), unsupported.DisplayType)

	raw, err := json.Marshal(layout)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Quarterly")
	assert.NotContains(t, string(raw), "body")
}

func TestCarouselWrapsAround(t *testing.T) {
	layout := Select(&model.Announcement{
		DisplayType: model.DisplayImageCarousel,
		Images:      []string{"a.png", "b.png", "c.png"},
	})
	carousel, ok := layout.(Carousel)
	require.True(t, ok)

	assert.Equal(t, 0, carousel.Next(2))
	assert.Equal(t, 2, carousel.Prev(0))
	assert.Equal(t, 1, carousel.Next(0))
	assert.Equal(t, 1, carousel.Prev(2))
}

func TestEmptyImageListsFallBackToPlaceholder(t *testing.T) {
	for _, displayType := range []model.DisplayType{model.DisplayGrid, model.DisplayImageCarousel} {
		layout := Select(&model.Announcement{DisplayType: displayType})
		switch v := layout.(type) {
		case Grid:
			assert.Equal(t, []string{PlaceholderImage}, v.Images)
		case Carousel:
			assert.Equal(t, []string{PlaceholderImage}, v.Images)
			assert.Equal(t, 0, v.Next(0))
			assert.Equal(t, 0, v.Prev(0))
		default:
			t.Fatalf("unexpected layout %T", layout)
		}
	}
}

func TestHotspotsWithoutMarkersRenderBaseImage(t *testing.T) {
	layout := Select(&model.Announcement{
		DisplayType: model.DisplayImageHotspots,
		Image:       strPtr("/floor.png"),
	})
	hotspots, ok := layout.(Hotspots)
	require.True(t, ok)
	assert.Equal(t, "/floor.png", hotspots.Image)
	assert.Empty(t, hotspots.Markers)
}

func TestTimelineKeepsListOrder(t *testing.T) {
	entries := []model.TimelineEvent{
		{Date: "2025-03-01", Title: "Kickoff"},
		{Date: "2025-01-01", Title: "Idea"},
		{Date: "2025-06-01", Title: "Launch"},
	}
	layout := Select(&model.Announcement{DisplayType: model.DisplayTimelineView, TimelineEvents: entries})
	timeline, ok := layout.(Timeline)
	require.True(t, ok)
	assert.Equal(t, entries, timeline.Entries)
}

func TestPlanCarriesOnlyVariantPayload(t *testing.T) {
	plan := PlanFor(&model.Announcement{
		Title:       "Welcome",
		DisplayType: model.DisplayBanner,
		Image:       strPtr("/hero.jpg"),
		Images:      []string{"ignored.png"},
	})
	raw, err := json.Marshal(plan)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "banner", decoded["layout"])
	view := decoded["view"].(map[string]any)
	assert.Equal(t, "/hero.jpg", view["image"])
	assert.NotContains(t, view, "images")
}
