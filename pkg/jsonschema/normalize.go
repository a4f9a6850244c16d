package jsonschema

import (
	"github.com/goliatone/go-propedit/pkg/schema"
)

// subschemaMaps are keywords whose value maps names to subschemas.
var subschemaMaps = []string{"properties", "patternProperties", "definitions", "$defs"}

// subschemaValues are keywords whose value is a single subschema.
var subschemaValues = []string{"items", "additionalProperties", "additionalItems", "not", "if", "then", "else", "contains"}

// subschemaLists are keywords whose value is an array of subschemas kept as is.
var subschemaLists = []string{"oneOf", "anyOf", "items"}

// InlineCompositions removes every allOf by folding its branches into the
// containing node with Merge, in declaration order. oneOf, anyOf and
// conditionals are preserved since their resolution depends on data. Nodes
// that need no change are returned by reference.
func InlineCompositions(node map[string]any) map[string]any {
	if node == nil {
		return nil
	}
	out, _ := inlineNode(node)
	return out
}

func inlineNode(node map[string]any) (map[string]any, bool) {
	current := node
	owned := false

	if branches, ok := schema.List(node, "allOf"); ok {
		merged := make(map[string]any, len(node))
		for key, value := range node {
			if key == "allOf" {
				continue
			}
			merged[key] = value
		}
		ownRef, hasOwnRef := node[RefAnnotation]
		for _, branch := range branches {
			branchMap, ok := branch.(map[string]any)
			if !ok {
				continue
			}
			inlined, _ := inlineNode(branchMap)
			merged = Merge(merged, inlined)
		}
		// A merged node is no longer a plain reference to any single branch.
		if hasOwnRef {
			merged[RefAnnotation] = ownRef
		} else {
			delete(merged, RefAnnotation)
		}
		current = merged
		owned = true
	}

	set := func(key string, value any) {
		if !owned {
			current = shallowCopy(current)
			owned = true
		}
		current[key] = value
	}

	for _, key := range subschemaMaps {
		children, ok := schema.Object(current, key)
		if !ok {
			continue
		}
		var childOut map[string]any
		for _, name := range schema.SortedKeys(children) {
			child, ok := children[name].(map[string]any)
			if !ok {
				continue
			}
			inlined, changed := inlineNode(child)
			if !changed {
				continue
			}
			if childOut == nil {
				childOut = shallowCopy(children)
			}
			childOut[name] = inlined
		}
		if childOut != nil {
			set(key, childOut)
		}
	}

	for _, key := range subschemaValues {
		child, ok := schema.Object(current, key)
		if !ok {
			continue
		}
		if inlined, changed := inlineNode(child); changed {
			set(key, inlined)
		}
	}

	for _, key := range subschemaLists {
		list, ok := schema.List(current, key)
		if !ok {
			continue
		}
		var listOut []any
		for idx, entry := range list {
			child, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			inlined, changed := inlineNode(child)
			if !changed {
				continue
			}
			if listOut == nil {
				listOut = append([]any(nil), list...)
			}
			listOut[idx] = inlined
		}
		if listOut != nil {
			set(key, listOut)
		}
	}

	return current, owned
}

// Merge deep-merges b into a copy of a. Object values merge recursively,
// array values concatenate (a first), and any other value from b wins.
// Values that are not merged are shared with the inputs.
func Merge(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for key, value := range a {
		out[key] = value
	}
	for key, bValue := range b {
		aValue, exists := out[key]
		if !exists {
			out[key] = bValue
			continue
		}
		switch aTyped := aValue.(type) {
		case map[string]any:
			if bTyped, ok := bValue.(map[string]any); ok {
				out[key] = Merge(aTyped, bTyped)
				continue
			}
		case []any:
			if bTyped, ok := bValue.([]any); ok {
				joined := make([]any, 0, len(aTyped)+len(bTyped))
				joined = append(joined, aTyped...)
				joined = append(joined, bTyped...)
				out[key] = joined
				continue
			}
		}
		out[key] = bValue
	}
	return out
}
