package effective

import "github.com/goliatone/go-propedit/pkg/schema"

// decorator delegates every capability to the wrapped view.
type decorator struct {
	inner Schema
}

func (d decorator) Parent() Schema                   { return d.inner.Parent() }
func (d decorator) Base() schema.Node                { return d.inner.Base() }
func (d decorator) Title() string                    { return d.inner.Title() }
func (d decorator) Description() string              { return d.inner.Description() }
func (d decorator) ReadOnly() bool                   { return d.inner.ReadOnly() }
func (d decorator) Required() bool                   { return d.inner.Required() }
func (d decorator) Pointer() []string                { return d.inner.Pointer() }
func (d decorator) PropertyName() string             { return d.inner.PropertyName() }
func (d decorator) DefaultValue() any                { return d.inner.DefaultValue() }
func (d decorator) PropertyOrder() []string          { return d.inner.PropertyOrder() }
func (d decorator) SchemaForValidation() schema.Node { return d.inner.SchemaForValidation() }

// Unwrap returns the decorated view.
func (d decorator) Unwrap() Schema { return d.inner }

// ForceReadOnly marks a view read-only regardless of its schema.
type ForceReadOnly struct {
	decorator
}

// NewForceReadOnly wraps inner so ReadOnly always reports true.
func NewForceReadOnly(inner Schema) *ForceReadOnly {
	return &ForceReadOnly{decorator{inner: inner}}
}

func (s *ForceReadOnly) ReadOnly() bool { return true }

// Nullable edits the non-null member of a type union such as
// ["string","null"]. Base returns the narrowed node while validation keeps
// the original union.
type Nullable struct {
	decorator
	narrowed schema.Node
}

// NewNullable wraps inner, narrowing its base to the single non-null type.
func NewNullable(inner Schema, nonNullType string) *Nullable {
	base := inner.Base()
	narrowed := make(schema.Node, len(base))
	for key, value := range base {
		narrowed[key] = value
	}
	narrowed["type"] = nonNullType
	return &Nullable{decorator: decorator{inner: inner}, narrowed: narrowed}
}

func (s *Nullable) Base() schema.Node { return s.narrowed }

// SchemaForValidation keeps null as an accepted value.
func (s *Nullable) SchemaForValidation() schema.Node { return s.inner.Base() }

// PropertyOrder follows the narrowed node.
func (s *Nullable) PropertyOrder() []string { return propertyOrder(s.narrowed) }

// Partial validates a possibly incomplete value: every required list is
// removed from the validation schema.
type Partial struct {
	decorator
	relaxed schema.Node
}

// NewPartial wraps inner with a validation schema that ignores required.
func NewPartial(inner Schema) *Partial {
	return &Partial{decorator: decorator{inner: inner}, relaxed: StripRequired(inner.SchemaForValidation())}
}

func (s *Partial) SchemaForValidation() schema.Node { return s.relaxed }

// NullableMember returns the single non-null type of a two member type union
// containing "null".
func NullableMember(node schema.Node) (string, bool) {
	types := schema.Types(node)
	if len(types) != 2 || !schema.Contains(types, "null") {
		return "", false
	}
	for _, name := range types {
		if name != "null" {
			return name, true
		}
	}
	return "", false
}

// StripRequired returns a copy of node without required lists at any depth.
// Subtrees without required are shared.
func StripRequired(node schema.Node) schema.Node {
	out, _ := stripRequired(node)
	return out
}

func stripRequired(node schema.Node) (schema.Node, bool) {
	if node == nil {
		return nil, false
	}
	var out schema.Node
	ensure := func() {
		if out == nil {
			out = make(schema.Node, len(node))
			for key, value := range node {
				out[key] = value
			}
		}
	}
	if _, ok := node["required"]; ok {
		ensure()
		delete(out, "required")
	}
	for key, value := range node {
		switch typed := value.(type) {
		case map[string]any:
			if key == "properties" || key == "patternProperties" || key == "definitions" || key == "$defs" {
				var children schema.Node
				for name, child := range typed {
					childNode, ok := child.(map[string]any)
					if !ok {
						continue
					}
					if stripped, changed := stripRequired(childNode); changed {
						if children == nil {
							children = make(schema.Node, len(typed))
							for k, v := range typed {
								children[k] = v
							}
						}
						children[name] = stripped
					}
				}
				if children != nil {
					ensure()
					out[key] = children
				}
				continue
			}
			if key == "default" || key == "const" {
				continue
			}
			if stripped, changed := stripRequired(typed); changed {
				ensure()
				out[key] = stripped
			}
		case []any:
			if key == "enum" || key == "examples" || key == "default" || key == "const" {
				continue
			}
			var list []any
			for idx, entry := range typed {
				entryNode, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				if stripped, changed := stripRequired(entryNode); changed {
					if list == nil {
						list = append([]any(nil), typed...)
					}
					list[idx] = stripped
				}
			}
			if list != nil {
				ensure()
				out[key] = list
			}
		}
	}
	if out == nil {
		return node, false
	}
	return out, true
}
