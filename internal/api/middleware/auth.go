package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
)

const (
	identityContextKey = "identity"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// TokenVerifier resolves an access token to the live user behind it.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*model.PublicUser, error)
}

// Auth rejects requests without a valid session with 401.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); ok {
			c.Next()
			return
		}

		token := TokenFromRequest(c)
		if token == "" {
			response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		user, err := verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, policy.ErrUnauthorized) {
				response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
			} else {
				response.Fail(c, 500, response.ErrUpstream, "failed to resolve session")
			}
			c.Abort()
			return
		}

		c.Set(identityContextKey, user)
		c.Next()
	}
}

// OptionalAuth resolves the session when one is presented and otherwise
// lets the request through as a guest. A bad token is treated as no token.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); ok {
			c.Next()
			return
		}
		if token := TokenFromRequest(c); token != "" {
			if user, err := verifier.VerifyAccessToken(c.Request.Context(), token); err == nil && user != nil {
				c.Set(identityContextKey, user)
			}
		}
		c.Next()
	}
}

// RequireRole is a coarse route guard; services still authorize every call.
func RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetIdentity(c)
		if !ok {
			response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		response.Fail(c, 403, response.ErrForbidden, "forbidden")
		c.Abort()
	}
}

func GetIdentity(c *gin.Context) (*model.PublicUser, bool) {
	val, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*model.PublicUser)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// Subject is the policy subject of the request; nil for guests.
func Subject(c *gin.Context) *policy.Subject {
	user, _ := GetIdentity(c)
	return policy.SubjectOf(user)
}

// TokenFromRequest prefers the cookie and falls back to a bearer header.
func TokenFromRequest(c *gin.Context) string {
	if cookieToken, err := c.Cookie(AccessTokenCookie); err == nil && cookieToken != "" {
		return cookieToken
	}
	return bearerTokenFromRequest(c.GetHeader("Authorization"))
}
