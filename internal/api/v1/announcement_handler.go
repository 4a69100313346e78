package v1

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	inputsanitize "github.com/janzenegnisaban/vision-board-sub000/internal/api/sanitize"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/render"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

const dateLayout = "2006-01-02"

type AnnouncementHandler struct {
	announcementService *service.AnnouncementService
}

type announcementRequest struct {
	Title          string                `json:"title"`
	Content        string                `json:"content"`
	Category       string                `json:"category"`
	DisplayType    string                `json:"display_type"`
	Date           *string               `json:"date"`
	Published      *bool                 `json:"published"`
	Image          *string               `json:"image"`
	Images         []string              `json:"images"`
	Hotspots       []model.Hotspot       `json:"hotspots"`
	TimelineEvents []model.TimelineEvent `json:"timeline_events"`
}

type publishRequest struct {
	Published *bool `json:"published"`
}

func NewAnnouncementHandler(announcementService *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementService: announcementService,
	}
}

func RegisterAnnouncementRoutes(group *gin.RouterGroup, announcementService *service.AnnouncementService, verifier middleware.TokenVerifier) {
	if announcementService == nil {
		return
	}

	handler := NewAnnouncementHandler(announcementService)
	ann := group.Group("/announcements")

	ann.GET("", middleware.OptionalAuth(verifier), handler.List)
	ann.GET("/:id", middleware.OptionalAuth(verifier), handler.Get)
	ann.GET("/:id/layout", middleware.OptionalAuth(verifier), handler.Layout)

	ann.POST("", middleware.Auth(verifier), handler.Create)
	ann.PUT("/:id", middleware.Auth(verifier), handler.Update)
	ann.PATCH("/:id/publish", middleware.Auth(verifier), handler.Publish)
	ann.DELETE("/:id", middleware.Auth(verifier), handler.Delete)
}

// List serves GET /api/v1/announcements.
// Published announcements, newest first. Staff may include drafts.
func (h *AnnouncementHandler) List(c *gin.Context) {
	p := parsePage(c)
	q := service.AnnouncementQuery{
		IncludeDrafts: parseBoolQuery(c, "include_drafts"),
		Limit:         p.Limit,
		Offset:        p.Offset,
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category := model.AnnouncementCategory(strings.ToLower(raw))
		q.Category = &category
	}

	items, total, err := h.announcementService.List(c.Request.Context(), middleware.Subject(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.Announcement{}
	}
	response.Paginated(c, gin.H{"announcements": items}, p.Limit, p.Offset, total)
}

func (h *AnnouncementHandler) Get(c *gin.Context) {
	item, err := h.announcementService.Get(c.Request.Context(), middleware.Subject(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

// Layout returns the rendering plan a display uses for the announcement.
func (h *AnnouncementHandler) Layout(c *gin.Context) {
	item, err := h.announcementService.Get(c.Request.Context(), middleware.Subject(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, render.PlanFor(item))
}

// Create serves POST /api/v1/announcements.
// Create an announcement (ADMIN, SUPERADMIN).
func (h *AnnouncementHandler) Create(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	item, err := h.announcementService.Create(c.Request.Context(), middleware.Subject(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, item)
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	item, err := h.announcementService.Update(c.Request.Context(), middleware.Subject(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *AnnouncementHandler) Publish(c *gin.Context) {
	published, ok := bindPublish(c)
	if !ok {
		return
	}

	item, err := h.announcementService.SetPublished(c.Request.Context(), middleware.Subject(c), c.Param("id"), published)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.announcementService.Delete(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

// bindInput decodes and sanitizes the body. Image URLs with a scheme other
// than http(s) are rejected rather than silently dropped.
func (h *AnnouncementHandler) bindInput(c *gin.Context) (service.AnnouncementInput, bool) {
	var req announcementRequest
	if !bindJSON(c, &req) {
		return service.AnnouncementInput{}, false
	}

	in := service.AnnouncementInput{
		Title:       inputsanitize.Plain(req.Title),
		Content:     inputsanitize.Markdown(req.Content),
		Category:    model.AnnouncementCategory(strings.ToLower(strings.TrimSpace(req.Category))),
		DisplayType: model.DisplayType(strings.ToLower(strings.TrimSpace(req.DisplayType))),
		Published:   req.Published,
	}

	invalid := &service.ValidationError{}
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		date, err := parseContentDate(*req.Date)
		if err != nil {
			invalid.InvalidFields = append(invalid.InvalidFields, "date")
		} else {
			in.Date = &date
		}
	}

	image, ok := inputsanitize.ImageURLPtr(req.Image)
	if !ok {
		invalid.InvalidFields = append(invalid.InvalidFields, "image")
	}
	in.Image = image

	images, bad := inputsanitize.ImageURLs(req.Images)
	if bad >= 0 {
		invalid.InvalidFields = append(invalid.InvalidFields, fmt.Sprintf("images[%d]", bad))
	}
	in.Images = images

	for _, spot := range req.Hotspots {
		spot.Title = inputsanitize.Plain(spot.Title)
		spot.Description = inputsanitize.Plain(spot.Description)
		in.Hotspots = append(in.Hotspots, spot)
	}
	for index, entry := range req.TimelineEvents {
		entry.Title = inputsanitize.Plain(entry.Title)
		entry.Description = inputsanitize.Markdown(entry.Description)
		cleaned, ok := inputsanitize.ImageURLPtr(entry.Image)
		if !ok {
			invalid.InvalidFields = append(invalid.InvalidFields, fmt.Sprintf("timeline_events[%d].image", index))
		}
		entry.Image = cleaned
		in.TimelineEvents = append(in.TimelineEvents, entry)
	}

	if len(invalid.InvalidFields) > 0 {
		respondError(c, invalid)
		return service.AnnouncementInput{}, false
	}
	return in, true
}

func bindPublish(c *gin.Context) (bool, bool) {
	var req publishRequest
	if !bindJSON(c, &req) {
		return false, false
	}
	if req.Published == nil {
		respondError(c, &service.ValidationError{MissingFields: []string{"published"}})
		return false, false
	}
	return *req.Published, true
}

// parseContentDate accepts a calendar day or an RFC 3339 timestamp.
func parseContentDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if day, err := time.Parse(dateLayout, raw); err == nil {
		return day, nil
	}
	return time.Parse(time.RFC3339, raw)
}
