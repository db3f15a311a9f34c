package voice

import (
	"strings"
	"unicode/utf8"
)

var separators = []string{"\n\n", "\n", ". ", " "}

// Split breaks text into ordered parts of at most limit characters,
// preferring paragraph boundaries and falling back to lines, sentences,
// words and finally a hard cut. Blank parts are dropped.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var out []string
	for _, part := range splitRecursive(text, separators, limit) {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitRecursive(text string, seps []string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	if len(seps) == 0 {
		var result []string
		runes := []rune(text)
		for i := 0; i < len(runes); i += limit {
			end := min(i+limit, len(runes))
			result = append(result, string(runes[i:end]))
		}
		return result
	}

	sep := seps[0]
	parts := strings.Split(text, sep)
	var result []string
	var current strings.Builder

	for _, part := range parts {
		if current.Len() > 0 && utf8.RuneCountInString(current.String()+sep+part) > limit {
			result = append(result, splitRecursive(current.String(), seps[1:], limit)...)
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}

	if current.Len() > 0 {
		result = append(result, splitRecursive(current.String(), seps[1:], limit)...)
	}

	return result
}
