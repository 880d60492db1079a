// Package links synthesizes deep links to the original comments. Each known
// source gets one row in the registry; anything unmatched degrades to a
// diagnostic string instead of failing.
package links

import (
	"fmt"
	"strings"
)

// Builder formats a comment link for one source family.
type Builder func(articleURL, commentID string) string

type rule struct {
	match string
	build Builder
}

// Matching is first-hit on a case-insensitive substring of the source
// directory name. New sources are added by appending a row.
var registry = []rule{
	{"habr", habrURL},
	{"smart-lab", smartLabURL},
	{"t-j", tjURL},
	{"tj", tjURL},
}

// BuildURL returns the best-effort link to a comment. It never fails: for
// unknown sources or malformed article URLs it returns a diagnostic string
// carrying the raw inputs.
func BuildURL(sourceName, articleURL, commentID string) string {
	name := strings.ToLower(sourceName)
	for _, r := range registry {
		if strings.Contains(name, r.match) {
			return r.build(articleURL, commentID)
		}
	}
	return fmt.Sprintf("Unknown source (url: %s, comment: %s)", articleURL, commentID)
}

func habrURL(articleURL, commentID string) string {
	_, rest, ok := strings.Cut(articleURL, "/articles/")
	if !strings.Contains(articleURL, "habr.com") || !ok {
		return fmt.Sprintf("Unknown Habr URL: %s", articleURL)
	}
	articleID, _, _ := strings.Cut(rest, "/")
	return fmt.Sprintf("https://habr.com/ru/articles/%s/comments/#comment_%s", articleID, commentID)
}

func smartLabURL(articleURL, commentID string) string {
	_, rest, ok := strings.Cut(articleURL, "/blog/")
	if !strings.Contains(articleURL, "smart-lab.ru") || !ok {
		return fmt.Sprintf("Unknown Smart-Lab URL: %s", articleURL)
	}
	articleID, _, _ := strings.Cut(rest, ".php")
	return fmt.Sprintf("https://smart-lab.ru/blog/%s.php#comment%s", articleID, commentID)
}

func tjURL(articleURL, commentID string) string {
	if articleURL == "" {
		return fmt.Sprintf("Unknown TJ URL (comment: %s)", commentID)
	}
	// Drop any anchor first, then the trailing slash, so an anchored URL
	// does not end up with a doubled slash.
	base, _, _ := strings.Cut(articleURL, "#")
	base = strings.TrimRight(base, "/")
	return fmt.Sprintf("%s/#c%s", base, commentID)
}
