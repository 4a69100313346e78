package v1

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func RegisterAuditRoutes(group *gin.RouterGroup, auditService *service.AuditService, verifier middleware.TokenVerifier) {
	if auditService == nil {
		return
	}

	handler := NewAuditHandler(auditService)
	audit := group.Group("/audit")
	audit.Use(middleware.Auth(verifier), middleware.RequireRole(model.UserRoleSuperAdmin))
	audit.GET("", handler.List)
}

// List serves GET /api/v1/audit.
// Audit trail of content and account changes, newest first (SUPERADMIN).
func (h *AuditHandler) List(c *gin.Context) {
	from, err := parseSystemLogTime(c.Query("from"))
	if err != nil {
		badRequest(c, "invalid from")
		return
	}
	to, err := parseSystemLogTime(c.Query("to"))
	if err != nil {
		badRequest(c, "invalid to")
		return
	}

	p := parsePage(c)
	items, err := h.auditService.List(c.Request.Context(), middleware.Subject(c), service.AuditQuery{
		ActorID:      strings.TrimSpace(c.Query("actor_id")),
		ResourceType: strings.TrimSpace(c.Query("resource_type")),
		From:         from,
		To:           to,
		Limit:        p.Limit,
		Offset:       p.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.AuditLog{}
	}
	response.Success(c, gin.H{"logs": items})
}
