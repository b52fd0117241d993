// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Message bodies may carry a small amount of inline formatting (emphasis,
// code, links, lists, quotes). Titles and other single-line fields are
// reduced to plain text.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once    sync.Once
	message *bluemonday.Policy
	strict  *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	once.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "b", "strong", "i", "em", "u", "s",
			"code", "pre", "blockquote", "ul", "ol", "li")
		p.AllowStandardURLs()
		p.AllowAttrs("href").OnElements("a")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		message = p

		strict = bluemonday.StrictPolicy()
	})
	return message, strict
}

// Sanitize returns body with only message formatting left.
func Sanitize(body string) string {
	if body == "" {
		return ""
	}
	p, _ := policies()
	return strings.TrimSpace(p.Sanitize(body))
}

// PlainText strips every tag from s.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	_, p := policies()
	return strings.TrimSpace(p.Sanitize(s))
}
