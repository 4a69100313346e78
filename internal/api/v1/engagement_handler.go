package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	inputsanitize "github.com/janzenegnisaban/vision-board-sub000/internal/api/sanitize"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

// EngagementHandler serves comments and reactions. Both attach to exactly
// one announcement or event.
type EngagementHandler struct {
	commentService  *service.CommentService
	reactionService *service.ReactionService
}

type targetRequest struct {
	AnnouncementID      string `json:"announcement_id"`
	EventID             string `json:"event_id"`
	AnnouncementIDCamel string `json:"announcementId"`
	EventIDCamel        string `json:"eventId"`
}

func (r targetRequest) target() (model.ContentRef, error) {
	announcementID := r.AnnouncementID
	if announcementID == "" {
		announcementID = r.AnnouncementIDCamel
	}
	eventID := r.EventID
	if eventID == "" {
		eventID = r.EventIDCamel
	}
	return service.ParseTarget(announcementID, eventID)
}

type commentRequest struct {
	targetRequest
	Content string `json:"content"`
}

type reactionRequest struct {
	targetRequest
	Type string `json:"type"`
}

func NewEngagementHandler(commentService *service.CommentService, reactionService *service.ReactionService) *EngagementHandler {
	return &EngagementHandler{
		commentService:  commentService,
		reactionService: reactionService,
	}
}

func RegisterEngagementRoutes(
	group *gin.RouterGroup,
	commentService *service.CommentService,
	reactionService *service.ReactionService,
	verifier middleware.TokenVerifier,
	limiter *middleware.RateLimiter,
) {
	if commentService == nil || reactionService == nil {
		return
	}

	handler := NewEngagementHandler(commentService, reactionService)
	write := func(next gin.HandlerFunc) []gin.HandlerFunc {
		chain := []gin.HandlerFunc{middleware.Auth(verifier)}
		if limiter != nil {
			chain = append(chain, limiter.ByUser())
		}
		return append(chain, next)
	}

	comments := group.Group("/comments")
	comments.GET("", middleware.OptionalAuth(verifier), handler.ListComments)
	comments.POST("", write(handler.CreateComment)...)
	comments.DELETE("/:id", middleware.Auth(verifier), handler.DeleteComment)

	reactions := group.Group("/reactions")
	reactions.GET("", middleware.OptionalAuth(verifier), handler.ReactionSummary)
	reactions.POST("", write(handler.AddReaction)...)
	reactions.DELETE("/:id", middleware.Auth(verifier), handler.RemoveReaction)
}

func queryTarget(c *gin.Context) (model.ContentRef, error) {
	return service.ParseTarget(
		queryAlias(c, "announcementId", "announcement_id"),
		queryAlias(c, "eventId", "event_id"),
	)
}

// ListComments serves GET /api/v1/comments.
// Comments on one announcement or event, oldest first.
func (h *EngagementHandler) ListComments(c *gin.Context) {
	target, err := queryTarget(c)
	if err != nil {
		respondError(c, err)
		return
	}

	p := parsePage(c)
	items, err := h.commentService.List(c.Request.Context(), middleware.Subject(c), target, p.Limit, p.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.Comment{}
	}
	response.Success(c, gin.H{"comments": items})
}

func (h *EngagementHandler) CreateComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := req.target()
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.commentService.Create(c.Request.Context(), middleware.Subject(c), service.CommentInput{
		Content: inputsanitize.Plain(req.Content),
		Target:  target,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteComment only succeeds for the comment's author.
func (h *EngagementHandler) DeleteComment(c *gin.Context) {
	if err := h.commentService.Delete(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

func (h *EngagementHandler) ReactionSummary(c *gin.Context) {
	target, err := queryTarget(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.reactionService.Summary(c.Request.Context(), middleware.Subject(c), target)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *EngagementHandler) AddReaction(c *gin.Context) {
	var req reactionRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := req.target()
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.reactionService.Add(c.Request.Context(), middleware.Subject(c), service.ReactionInput{
		Type:   model.ReactionType(req.Type),
		Target: target,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, item)
}

func (h *EngagementHandler) RemoveReaction(c *gin.Context) {
	if err := h.reactionService.Remove(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}
