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

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterUserRoutes mounts account administration. The route guard gives
// fast 401/403 answers; UserService checks the role again on every call.
func RegisterUserRoutes(group *gin.RouterGroup, userService *service.UserService, verifier middleware.TokenVerifier) {
	if userService == nil {
		return
	}

	handler := NewUserHandler(userService)
	users := group.Group("/users")
	users.Use(middleware.Auth(verifier), middleware.RequireRole(model.UserRoleSuperAdmin))

	users.GET("", handler.List)
	users.POST("", handler.Create)
	users.GET("/:id", handler.Get)
	users.PATCH("/:id", handler.Update)
	users.DELETE("/:id", handler.Delete)
}

// List serves GET /api/v1/users.
// Accounts (SUPERADMIN).
func (h *UserHandler) List(c *gin.Context) {
	p := parsePage(c)
	users, total, err := h.userService.List(c.Request.Context(), middleware.Subject(c), service.UserQuery{
		Role:    strings.TrimSpace(c.Query("role")),
		Active:  parseOptionalBool(c.Query("active")),
		Keyword: strings.TrimSpace(c.Query("keyword")),
		Limit:   p.Limit,
		Offset:  p.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []*model.PublicUser{}
	}
	response.Paginated(c, gin.H{"users": users}, p.Limit, p.Offset, total)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.Subject(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user})
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Name = inputsanitize.Plain(req.Name)

	user, err := h.userService.Create(c.Request.Context(), middleware.Subject(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, gin.H{"user": user})
}

func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name != nil {
		name := inputsanitize.Plain(*req.Name)
		req.Name = &name
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.Subject(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user})
}

// Delete answers 409 while the user still authors announcements or events.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}
