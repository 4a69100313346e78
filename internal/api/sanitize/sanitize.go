package sanitize

import (
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = sync.OnceValue(bluemonday.StrictPolicy)

	markdownPolicy = sync.OnceValue(func() *bluemonday.Policy {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("p", "pre", "code", "blockquote")
		return policy
	})
)

// Plain strips every tag, keeping only the text. Used for comments, which
// render as plain text on the board.
func Plain(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy().Sanitize(value)))
}

// Markdown keeps the user-generated-content subset of HTML that markdown
// renders to and drops everything else.
func Markdown(input string) string {
	if value := strings.TrimSpace(input); value != "" {
		return markdownPolicy().Sanitize(value)
	}
	return ""
}

// ImageURL accepts absolute http(s) URLs and site-relative paths. Anything
// else (javascript:, data:, protocol-relative) yields ok=false.
func ImageURL(input string) (string, bool) {
	value := strings.TrimSpace(input)
	if value == "" {
		return "", false
	}
	if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
		return value, !strings.ContainsAny(value, "<>\"' ")
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return parsed.String(), true
	default:
		return "", false
	}
}

// ImageURLPtr returns nil for nil or blank input.
func ImageURLPtr(input *string) (*string, bool) {
	if input == nil || strings.TrimSpace(*input) == "" {
		return nil, true
	}
	value, ok := ImageURL(*input)
	if !ok {
		return nil, false
	}
	return &value, true
}

// ImageURLs keeps order and reports the index of the first rejected entry,
// or -1 when every entry is acceptable.
func ImageURLs(values []string) ([]string, int) {
	if len(values) == 0 {
		return nil, -1
	}
	out := make([]string, 0, len(values))
	for i, item := range values {
		cleaned, ok := ImageURL(item)
		if !ok {
			return nil, i
		}
		out = append(out, cleaned)
	}
	return out, -1
}
