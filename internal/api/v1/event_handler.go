package v1

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	inputsanitize "github.com/janzenegnisaban/vision-board-sub000/internal/api/sanitize"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func RegisterEventRoutes(group *gin.RouterGroup, eventService *service.EventService, verifier middleware.TokenVerifier) {
	if eventService == nil {
		return
	}

	handler := NewEventHandler(eventService)
	events := group.Group("/events")

	events.GET("", middleware.OptionalAuth(verifier), handler.List)
	events.GET("/:id", middleware.OptionalAuth(verifier), handler.Get)

	events.POST("", middleware.Auth(verifier), handler.Create)
	events.PUT("/:id", middleware.Auth(verifier), handler.Update)
	events.PATCH("/:id/publish", middleware.Auth(verifier), handler.Publish)
	events.DELETE("/:id", middleware.Auth(verifier), handler.Delete)
}

// List serves GET /api/v1/events.
// Published events ordered by date.
func (h *EventHandler) List(c *gin.Context) {
	p := parsePage(c)
	q := service.EventQuery{
		Day:           strings.TrimSpace(c.Query("date")),
		Upcoming:      parseBoolQuery(c, "upcoming"),
		IncludeDrafts: parseBoolQuery(c, "include_drafts"),
		Limit:         p.Limit,
		Offset:        p.Offset,
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category := model.EventCategory(strings.ToLower(raw))
		q.Category = &category
	}

	items, total, err := h.eventService.List(c.Request.Context(), middleware.Subject(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.Event{}
	}
	response.Paginated(c, gin.H{"events": items}, p.Limit, p.Offset, total)
}

func (h *EventHandler) Get(c *gin.Context) {
	item, err := h.eventService.Get(c.Request.Context(), middleware.Subject(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *EventHandler) Create(c *gin.Context) {
	in, ok := bindEventInput(c)
	if !ok {
		return
	}

	item, err := h.eventService.Create(c.Request.Context(), middleware.Subject(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, item)
}

func (h *EventHandler) Update(c *gin.Context) {
	in, ok := bindEventInput(c)
	if !ok {
		return
	}

	item, err := h.eventService.Update(c.Request.Context(), middleware.Subject(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *EventHandler) Publish(c *gin.Context) {
	published, ok := bindPublish(c)
	if !ok {
		return
	}

	item, err := h.eventService.SetPublished(c.Request.Context(), middleware.Subject(c), c.Param("id"), published)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.eventService.Delete(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func bindEventInput(c *gin.Context) (service.EventInput, bool) {
	var in service.EventInput
	if !bindJSON(c, &in) {
		return in, false
	}
	in.Title = inputsanitize.Plain(in.Title)
	in.Location = inputsanitize.Plain(in.Location)
	in.Details = inputsanitize.Markdown(in.Details)
	in.Category = model.EventCategory(strings.ToLower(strings.TrimSpace(string(in.Category))))
	if in.Department != nil {
		department := inputsanitize.Plain(*in.Department)
		in.Department = &department
	}
	return in, true
}
