// Package htmlsanitize strips markup from free-text fields supplied by
// clients (request descriptions, hospital and team names) before storage.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictOnce sync.Once
	strict     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// PlainText removes every tag from s and trims surrounding space.
// bluemonday escapes text it keeps; entities are unescaped again so the
// stored value is the literal text a person typed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy().Sanitize(s)))
}
