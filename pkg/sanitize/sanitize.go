// Package sanitize cleans user-supplied rich text before it is stored.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func ugc() *bluemonday.Policy {
	once.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return policy
}

// Description returns s with unsafe markup removed and surrounding space trimmed.
// Text without markup is returned unchanged, so "Q&A: x < y" is stored as typed
// rather than entity-escaped.
func Description(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !hasMarkup(s) {
		return s
	}
	return strings.TrimSpace(ugc().Sanitize(s))
}

// hasMarkup reports whether s holds tags, comments or entity references.
// Stripping everything and decoding again only gives back s when it has none.
func hasMarkup(s string) bool {
	return html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s)) != s
}

// Text strips all markup, for single-line fields such as titles and names.
// Entities are decoded again so "Q&A" stays "Q&A".
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(strings.TrimSpace(s))))
}
