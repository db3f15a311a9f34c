package textextract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FromHTML flattens an HTML fragment (as found in feed summaries) into plain
// text with collapsed whitespace. Input that does not parse is returned with
// whitespace normalized.
func FromHTML(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return normalizeWhitespace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normalizeWhitespace(fragment)
	}

	doc.Find("script, style").Remove()
	// block elements otherwise glue adjacent words together
	doc.Find("p, br, div, li, h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return normalizeWhitespace(doc.Text())
}

// Truncate returns the first n characters of s. The cut is hard: no word
// boundary trimming, but multi-byte characters are never split.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
