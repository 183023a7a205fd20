package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var plainText = bluemonday.StrictPolicy()

// sanitizeText strips all markup and surrounding space, leaving plain text.
// StrictPolicy escapes what it keeps, so entities are decoded again.
func sanitizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}
