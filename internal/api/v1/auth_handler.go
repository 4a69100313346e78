package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

const (
	actionLogin    = "login"
	actionRegister = "register"
	actionLogout   = "logout"
)

type AuthHandler struct {
	authService  *service.AuthService
	cookieSecure bool
}

type authRequest struct {
	Action       string `json:"action"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	RefreshToken string `json:"refresh_token"`
}

type sessionRequest struct {
	UserID string `json:"userId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthRouteOptions struct {
	CookieSecure bool
	// IPLimiter and AccountLimiter throttle POST /auth by client address
	// and by submitted email. Either may be nil.
	IPLimiter      *middleware.RateLimiter
	AccountLimiter *middleware.RateLimiter
}

func NewAuthHandler(authService *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

func RegisterAuthRoutes(group *gin.RouterGroup, authService *service.AuthService, opts AuthRouteOptions) {
	if authService == nil {
		return
	}

	handler := NewAuthHandler(authService, opts.CookieSecure)
	auth := group.Group("/auth")

	throttled := make([]gin.HandlerFunc, 0, 3)
	if opts.IPLimiter != nil {
		throttled = append(throttled, opts.IPLimiter.ByIP())
	}
	if opts.AccountLimiter != nil {
		throttled = append(throttled, opts.AccountLimiter.ByJSONField("email"))
	}
	throttled = append(throttled, handler.Dispatch)

	auth.POST("", throttled...)
	auth.POST("/session", middleware.OptionalAuth(authService), handler.Session)
	auth.POST("/refresh", handler.Refresh)
	auth.GET("/me", middleware.Auth(authService), handler.Me)
	auth.POST("/password", middleware.Auth(authService), handler.ChangePassword)
}

// Dispatch serves POST /api/v1/auth.
// Login, register or logout depending on action.
func (h *AuthHandler) Dispatch(c *gin.Context) {
	var req authRequest
	if !bindJSON(c, &req) {
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case actionLogin:
		h.login(c, req)
	case actionRegister:
		h.register(c, req)
	case actionLogout:
		h.logout(c, req)
	default:
		respondError(c, &service.ValidationError{InvalidFields: []string{"action"}, Reason: "action must be login, register or logout"})
	}
}

func (h *AuthHandler) login(c *gin.Context, req authRequest) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		missing := make([]string, 0, 2)
		if strings.TrimSpace(req.Email) == "" {
			missing = append(missing, "email")
		}
		if req.Password == "" {
			missing = append(missing, "password")
		}
		respondError(c, &service.ValidationError{MissingFields: missing})
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	response.Success(c, session)
}

func (h *AuthHandler) register(c *gin.Context, req authRequest) {
	user, err := h.authService.Register(c.Request.Context(), service.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.authService.StartSession(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	response.Created(c, session)
}

// logout always succeeds; an unknown or missing refresh token only means
// there is nothing left to revoke.
func (h *AuthHandler) logout(c *gin.Context, req authRequest) {
	refreshToken := req.RefreshToken
	if refreshToken == "" {
		refreshToken, _ = c.Cookie(middleware.RefreshTokenCookie)
	}

	actor := h.identityFromToken(c)
	if err := h.authService.Logout(c.Request.Context(), actor, refreshToken); err != nil {
		_ = c.Error(err)
	}

	h.clearSessionCookies(c)
	response.Success(c, gin.H{"user": nil})
}

// Session serves POST /api/v1/auth/session.
// Re-verify the caller's session against the user store.
func (h *AuthHandler) Session(c *gin.Context) {
	var req sessionRequest
	if !bindJSON(c, &req) {
		return
	}

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		response.Success(c, gin.H{"user": nil})
		return
	}
	if claimed := strings.TrimSpace(req.UserID); claimed != "" && claimed != identity.ID.String() {
		response.Success(c, gin.H{"user": nil})
		return
	}

	user, err := h.authService.ResolveSession(c.Request.Context(), identity.ID.String())
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		response.Success(c, gin.H{"user": nil})
		return
	}
	response.Success(c, gin.H{"user": user})
}

// Refresh serves POST /api/v1/auth/refresh.
// Rotate the refresh token and issue a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		refreshToken, _ = c.Cookie(middleware.RefreshTokenCookie)
	}
	if refreshToken == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	session, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	response.Success(c, session)
}

// Me serves GET /api/v1/auth/me.
// Current user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}
	response.Success(c, gin.H{"user": user})
}

// ChangePassword serves POST /api/v1/auth/password.
// Change the caller's password and sign out every session.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req service.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user, req); err != nil {
		respondError(c, err)
		return
	}

	h.clearSessionCookies(c)
	response.Success(c, gin.H{"message": "password changed"})
}

func (h *AuthHandler) identityFromToken(c *gin.Context) *model.PublicUser {
	token := middleware.TokenFromRequest(c)
	if token == "" {
		return nil
	}
	user, err := h.authService.VerifyAccessToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, session *service.Session) {
	now := time.Now()
	h.setCookie(c, middleware.AccessTokenCookie, session.AccessToken, int(session.AccessExpiresAt.Sub(now).Seconds()))
	h.setCookie(c, middleware.RefreshTokenCookie, session.RefreshToken, int(session.RefreshExpiresAt.Sub(now).Seconds()))
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	h.setCookie(c, middleware.AccessTokenCookie, "", -1)
	h.setCookie(c, middleware.RefreshTokenCookie, "", -1)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", "", h.cookieSecure, true)
}
