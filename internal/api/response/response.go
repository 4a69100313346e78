package response

import "github.com/gin-gonic/gin"

const (
	CodeSuccess = 0
)

const (
	ErrUnauthorized       = 10001
	ErrTokenExpired       = 10002
	ErrForbidden          = 10003
	ErrInvalidCredentials = 10004
	ErrAccountInactive    = 10005
)

const (
	ErrValidation = 20001
	ErrBadRequest = 20002
)

const (
	ErrNotFound = 30001
)

const (
	ErrConflict          = 40001
	ErrEmailTaken        = 40002
	ErrDuplicateReaction = 40003
	ErrUserOwnsContent   = 40004
)

const (
	ErrTooManyRequests = 42901
	ErrUpstream        = 50001
	ErrInternal        = 99999
)

type Response struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data any) {
	c.JSON(201, Response{
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

func Paginated(c *gin.Context, data any, limit, offset int, total int64) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
		Pagination: &Pagination{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	})
}

func Fail(c *gin.Context, httpStatus, appCode int, message string) {
	c.JSON(httpStatus, Response{
		Code:    appCode,
		Message: message,
	})
}

func FailWithData(c *gin.Context, httpStatus, appCode int, message string, data any) {
	c.JSON(httpStatus, Response{
		Code:    appCode,
		Message: message,
		Data:    data,
	})
}
