// internal/extract/text.go
package extract

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	newBadgePattern   = regexp.MustCompile(`(?i)^new\s+|\s+new$`)
	postedPrefix      = regexp.MustCompile(`(?i)^(posted|employer\s*active)\s*`)
	bulletReplacer    = strings.NewReplacer("•", "", "◦", "")
)

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// CleanSummary strips markup, decodes entities and removes bullet glyphs.
func CleanSummary(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = collapse(s)
	s = bulletReplacer.Replace(s)
	return collapse(s)
}

// spacedText returns the text of s with a space between child nodes, so
// adjacent inline elements do not run together.
func spacedText(s *goquery.Selection) string {
	var parts []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			parts = append(parts, c.Text())
			return
		}
		parts = append(parts, spacedText(c))
	})
	return collapse(strings.Join(parts, " "))
}

func cleanTitle(s string) string {
	return collapse(newBadgePattern.ReplaceAllString(collapse(s), ""))
}

func cleanPostedDate(s string) string {
	return collapse(postedPrefix.ReplaceAllString(collapse(s), ""))
}
