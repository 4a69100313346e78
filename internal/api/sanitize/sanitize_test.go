package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownStripsScripts(t *testing.T) {
	out := Markdown(`<p>Hello</p><script>alert(1)</script><a href="javascript:alert(1)">x</a>`)
	assert.Contains(t, out, "<p>Hello</p>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestPlainDropsTags(t *testing.T) {
	assert.Equal(t, "Great news & more", Plain("  <b>Great</b> news &amp; more "))
	assert.Equal(t, "", Plain("   "))
}

func TestImageURL(t *testing.T) {
	cases := map[string]bool{
		"https://cdn.example.com/a.png": true,
		"http://example.com/b.jpg":      true,
		"/uploads/c.png":                true,
		"//evil.example.com/x.png":      false,
		"javascript:alert(1)":           false,
		"data:image/png;base64,AAAA":    false,
		"ftp://example.com/a.png":       false,
		"":                              false,
	}
	for input, want := range cases {
		_, ok := ImageURL(input)
		assert.Equalf(t, want, ok, "ImageURL(%q)", input)
	}
}

func TestImageURLsKeepsOrderAndReportsFirstBadIndex(t *testing.T) {
	out, bad := ImageURLs([]string{"/b.png", "/a.png", "/c.png"})
	assert.Equal(t, -1, bad)
	assert.Equal(t, []string{"/b.png", "/a.png", "/c.png"}, out)

	_, bad = ImageURLs([]string{"/ok.png", "javascript:x"})
	assert.Equal(t, 1, bad)
}
