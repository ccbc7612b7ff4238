package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims s and collapses every whitespace run to one space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeText(text string) string {
	return TrimAndNormalize(text)
}

// NormalizeTag lowercases an expertise tag. Stored tags are matched without
// regard to case, so this only affects deduplication.
func NormalizeTag(tag string) string {
	return strings.ToLower(TrimAndNormalize(tag))
}
