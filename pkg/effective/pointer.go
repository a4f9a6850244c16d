package effective

import (
	"strings"

	"github.com/go-openapi/jsonpointer"
)

// PointerString renders segments as an RFC 6901 JSON pointer. The root is "".
func PointerString(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, segment := range segments {
		b.WriteByte('/')
		b.WriteString(jsonpointer.Escape(segment))
	}
	return b.String()
}

// ParsePointer splits an RFC 6901 pointer into unescaped segments.
func ParsePointer(pointer string) ([]string, error) {
	parsed, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, err
	}
	return parsed.DecodedTokens(), nil
}

// ExtractProperty returns the value addressed by pointer inside document.
// A missing location reports false.
func ExtractProperty(pointer string, document any) (any, bool) {
	parsed, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, false
	}
	value, _, err := parsed.Get(document)
	if err != nil {
		return nil, false
	}
	return value, true
}

// Heads returns every proper prefix of pointer, shortest first, starting with
// the root "".
func Heads(segments []string) []string {
	out := make([]string, 0, len(segments))
	for i := 0; i < len(segments); i++ {
		out = append(out, PointerString(segments[:i]))
	}
	return out
}
