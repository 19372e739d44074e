// Package sanitize strips markup from free-text form fields before they
// are stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element from s, dropping script and style
// bodies, and returns the remaining plain text trimmed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Fields applies Text to each named string value of m in place. Values
// that are not strings are left alone.
func Fields(m map[string]any, names ...string) {
	for _, n := range names {
		if s, ok := m[n].(string); ok {
			m[n] = Text(s)
		}
	}
}
