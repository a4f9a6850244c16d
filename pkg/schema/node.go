package schema

import (
	"sort"
	"strings"
)

// Node is a raw JSON Schema object as decoded from JSON.
type Node = map[string]any

// String returns the trimmed string stored under key, or "".
func String(node Node, key string) string {
	if node == nil {
		return ""
	}
	value, ok := node[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// Bool reports whether key holds a literal true.
func Bool(node Node, key string) bool {
	if node == nil {
		return false
	}
	value, ok := node[key].(bool)
	return ok && value
}

// Object returns the nested object stored under key.
func Object(node Node, key string) (Node, bool) {
	if node == nil {
		return nil, false
	}
	value, ok := node[key].(map[string]any)
	return value, ok
}

// List returns the array stored under key.
func List(node Node, key string) ([]any, bool) {
	if node == nil {
		return nil, false
	}
	value, ok := node[key].([]any)
	return value, ok
}

// StringList collects the string entries of the array stored under key.
// Non-string entries are skipped.
func StringList(node Node, key string) []string {
	list, ok := List(node, key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// Types returns the declared type names. A single "type" string yields one
// entry; a type array yields all string members.
func Types(node Node) []string {
	if node == nil {
		return nil
	}
	switch typed := node["type"].(type) {
	case string:
		if trimmed := strings.TrimSpace(typed); trimmed != "" {
			return []string{trimmed}
		}
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// HasType reports whether name is one of the declared types.
func HasType(node Node, name string) bool {
	for _, candidate := range Types(node) {
		if candidate == name {
			return true
		}
	}
	return false
}

// IsObject reports whether the node describes an object: explicit type or a
// properties map without a type.
func IsObject(node Node) bool {
	if HasType(node, "object") {
		return true
	}
	if len(Types(node)) > 0 {
		return false
	}
	_, ok := Object(node, "properties")
	return ok
}

// SortedKeys returns the keys of payload in lexical order.
func SortedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Contains reports whether list holds value.
func Contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
