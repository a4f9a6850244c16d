package effective

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/goliatone/go-propedit/pkg/schema"
)

var wordSeparators = regexp.MustCompile(`[_\-\s.]+`)

// Label returns a human friendly caption for s. An explicit schema title is
// used as is; otherwise the title is split on separators and camelCase
// boundaries and each word capitalised.
func Label(s Schema) string {
	if s == nil {
		return ""
	}
	if title := schema.String(s.Base(), "title"); title != "" {
		return title
	}
	return Humanize(s.Title())
}

// Humanize turns identifiers such as "postal_code" or "postalCode" into
// "Postal Code".
func Humanize(name string) string {
	var words []string
	for _, chunk := range wordSeparators.Split(name, -1) {
		for _, word := range splitWords(chunk) {
			runes := []rune(strings.ToLower(word))
			runes[0] = unicode.ToUpper(runes[0])
			words = append(words, string(runes))
		}
	}
	return strings.Join(words, " ")
}

func splitWords(chunk string) []string {
	runes := []rune(chunk)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsLetter(prev) && unicode.IsDigit(cur)) ||
			(unicode.IsDigit(prev) && unicode.IsLetter(cur))
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}
