package model

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/microcosm-cc/bluemonday"
)

const previewLimit = 80

var previewPolicy = bluemonday.StrictPolicy()

// sanitize strips markup so previews are safe to show as plain text. The
// policy escapes the remaining text, which is undone since previews are not
// HTML.
func sanitize(text string) string {
	cleaned := strings.TrimSpace(html.UnescapeString(previewPolicy.Sanitize(text)))
	if runes := []rune(cleaned); len(runes) > previewLimit {
		return string(runes[:previewLimit-1]) + "…"
	}
	return cleaned
}

func previewJSON(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, entry := range typed {
			parts = append(parts, previewJSON(entry))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	}
}

func firstLine(raw any) string {
	text := previewJSON(raw)
	if line, _, found := strings.Cut(text, "\n"); found {
		return line + " …"
	}
	return text
}
