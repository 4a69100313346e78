package v1

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

type page struct {
	Limit  int
	Offset int
}

func parsePage(c *gin.Context) page {
	limit := parseIntOrDefault(c.Query("limit"), defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := parseIntOrDefault(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	return page{Limit: limit, Offset: offset}
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolQuery(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}

func parseOptionalBool(raw string) *bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &value
}

// bindJSON decodes the body and answers 400 on malformed JSON. An empty
// body decodes to the zero value so field validation can report what is
// missing.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// queryAlias reads the first non-empty query value among keys, so both
// camelCase and snake_case parameters are accepted.
func queryAlias(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.Query(key)); value != "" {
			return value
		}
	}
	return ""
}
