package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

type errorMapping struct {
	target  error
	status  int
	code    int
	message string
}

// errorTable is checked in order; the more specific sentinels wrap the
// generic ones below them.
var errorTable = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials, "invalid email or password"},
	{service.ErrRefreshTokenExpired, http.StatusUnauthorized, response.ErrTokenExpired, "refresh token expired"},
	{policy.ErrUnauthorized, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized"},
	{service.ErrAccountInactive, http.StatusForbidden, response.ErrAccountInactive, "account is inactive"},
	{policy.ErrForbidden, http.StatusForbidden, response.ErrForbidden, "forbidden"},
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound, "not found"},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken, "email already registered"},
	{service.ErrDuplicateReaction, http.StatusConflict, response.ErrDuplicateReaction, "reaction already exists"},
	{service.ErrUserOwnsContent, http.StatusConflict, response.ErrUserOwnsContent, "user still authors content"},
	{service.ErrConflict, http.StatusConflict, response.ErrConflict, "conflict"},
	{service.ErrUpstream, http.StatusInternalServerError, response.ErrUpstream, "storage unavailable"},
}

// respondError writes the envelope for err. Server errors are attached to
// the gin context so the request logger records them.
func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var validation *service.ValidationError
	if errors.As(err, &validation) {
		message := "validation failed"
		if validation.Reason != "" {
			message = validation.Reason
		}
		response.FailWithData(c, http.StatusBadRequest, response.ErrValidation, message, validationData(validation))
		return
	}

	for _, mapping := range errorTable {
		if errors.Is(err, mapping.target) {
			if mapping.status >= http.StatusInternalServerError {
				_ = c.Error(err)
			}
			response.Fail(c, mapping.status, mapping.code, mapping.message)
			return
		}
	}

	_ = c.Error(err)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
}

func validationData(v *service.ValidationError) gin.H {
	fields := make([]string, 0, len(v.MissingFields)+len(v.InvalidFields))
	fields = append(fields, v.MissingFields...)
	fields = append(fields, v.InvalidFields...)
	data := gin.H{"fields": fields}
	if len(v.MissingFields) > 0 {
		data["missing_fields"] = v.MissingFields
	}
	if len(v.InvalidFields) > 0 {
		data["invalid_fields"] = v.InvalidFields
	}
	return data
}

func badRequest(c *gin.Context, message string) {
	response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, message)
}
