package effective

import (
	"strconv"

	"github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/schema"
)

// OrderKeyword is the custom extension listing properties in display order.
const OrderKeyword = "order"

// Schema is the effective view over a normalized schema node.
type Schema interface {
	// Parent returns the enclosing view, or nil for the root.
	Parent() Schema
	// Base returns the normalized schema node this view wraps.
	Base() schema.Node
	Title() string
	Description() string
	ReadOnly() bool
	// Required reports whether the value must be present in its container.
	Required() bool
	// Pointer returns the path segments from the document root.
	Pointer() []string
	// PropertyName is the object key or array index addressing the value in
	// its direct container.
	PropertyName() string
	DefaultValue() any
	PropertyOrder() []string
	// SchemaForValidation is the node used when validating the value alone.
	SchemaForValidation() schema.Node
}

// aliased marks views that share the location of their parent and add no
// pointer segment.
type aliased interface {
	aliasesParent() bool
}

// NewRoot returns the view for the document root.
func NewRoot(base schema.Node) Schema {
	return withReference(&Regular{base: base})
}

// NewProperty returns the view for property name of the object described by
// parent.
func NewProperty(parent Schema, name string, base schema.Node) Schema {
	return withReference(&Regular{parent: parent, base: base, name: name})
}

// NewItem returns the view for the array element at index.
func NewItem(parent Schema, index int, base schema.Node) Schema {
	return withReference(&InArray{parent: parent, base: base, index: index})
}

// NewBranch returns the view for composition branch index of parent.
func NewBranch(parent Schema, index int, base schema.Node) Schema {
	return &OfCombination{parent: parent, base: base, index: index}
}

func withReference(inner Schema) Schema {
	ref := schema.String(inner.Base(), jsonschema.RefAnnotation)
	if ref == "" {
		return inner
	}
	return &FromReference{parent: inner, base: inner.Base(), ref: ref}
}

// Regular is the view of a named object property, or the root when it has no
// parent.
type Regular struct {
	parent Schema
	base   schema.Node
	name   string
}

func (s *Regular) Parent() Schema                   { return s.parent }
func (s *Regular) Base() schema.Node                { return s.base }
func (s *Regular) PropertyName() string             { return s.name }
func (s *Regular) Description() string              { return schema.String(s.base, "description") }
func (s *Regular) DefaultValue() any                { return s.base["default"] }
func (s *Regular) PropertyOrder() []string          { return propertyOrder(s.base) }
func (s *Regular) SchemaForValidation() schema.Node { return s.base }

func (s *Regular) Title() string {
	if title := schema.String(s.base, "title"); title != "" {
		return title
	}
	return s.name
}

func (s *Regular) ReadOnly() bool {
	return readOnly(s.base, s.parent)
}

func (s *Regular) Required() bool {
	if s.parent == nil {
		return true
	}
	return requiredIn(s.parent, s.name)
}

func (s *Regular) Pointer() []string {
	if s.parent == nil {
		return []string{}
	}
	return appendSegment(s.parent.Pointer(), s.name)
}

// InArray is the view of an array element.
type InArray struct {
	parent Schema
	base   schema.Node
	index  int
}

func (s *InArray) Parent() Schema                   { return s.parent }
func (s *InArray) Base() schema.Node                { return s.base }
func (s *InArray) Index() int                       { return s.index }
func (s *InArray) PropertyName() string             { return strconv.Itoa(s.index) }
func (s *InArray) Title() string                    { return strconv.Itoa(s.index) }
func (s *InArray) Description() string              { return schema.String(s.base, "description") }
func (s *InArray) Required() bool                   { return true }
func (s *InArray) DefaultValue() any                { return s.base["default"] }
func (s *InArray) PropertyOrder() []string          { return propertyOrder(s.base) }
func (s *InArray) SchemaForValidation() schema.Node { return s.base }

func (s *InArray) ReadOnly() bool {
	return readOnly(s.base, s.parent)
}

func (s *InArray) Pointer() []string {
	if s.parent == nil {
		return []string{s.PropertyName()}
	}
	return appendSegment(s.parent.Pointer(), s.PropertyName())
}

// FromReference is the view of a node that was produced by resolving a $ref.
// It shares the location of the view it wraps.
type FromReference struct {
	parent Schema
	base   schema.Node
	ref    string
}

// Ref returns the original reference string.
func (s *FromReference) Ref() string { return s.ref }

func (s *FromReference) Parent() Schema                   { return s.parent }
func (s *FromReference) Base() schema.Node                { return s.base }
func (s *FromReference) PropertyName() string             { return s.parent.PropertyName() }
func (s *FromReference) Pointer() []string                { return s.parent.Pointer() }
func (s *FromReference) Required() bool                   { return s.parent.Required() }
func (s *FromReference) DefaultValue() any                { return s.base["default"] }
func (s *FromReference) PropertyOrder() []string          { return propertyOrder(s.base) }
func (s *FromReference) SchemaForValidation() schema.Node { return s.base }
func (s *FromReference) aliasesParent() bool              { return true }

func (s *FromReference) Title() string {
	if title := schema.String(s.base, "title"); title != "" {
		return title
	}
	if title := s.parent.Title(); title != "" {
		return title
	}
	return s.PropertyName()
}

func (s *FromReference) Description() string {
	if desc := schema.String(s.base, "description"); desc != "" {
		return desc
	}
	return s.parent.Description()
}

func (s *FromReference) ReadOnly() bool {
	return readOnly(s.base, s.parent)
}

// OfCombination is the view of one oneOf/anyOf branch. It edits the same
// value as its parent.
type OfCombination struct {
	parent Schema
	base   schema.Node
	index  int
}

// Index returns the branch position in declaration order.
func (s *OfCombination) Index() int { return s.index }

func (s *OfCombination) Parent() Schema                   { return s.parent }
func (s *OfCombination) Base() schema.Node                { return s.base }
func (s *OfCombination) PropertyName() string             { return s.parent.PropertyName() }
func (s *OfCombination) Pointer() []string                { return s.parent.Pointer() }
func (s *OfCombination) Required() bool                   { return s.parent.Required() }
func (s *OfCombination) Description() string              { return schema.String(s.base, "description") }
func (s *OfCombination) DefaultValue() any                { return s.base["default"] }
func (s *OfCombination) PropertyOrder() []string          { return propertyOrder(s.base) }
func (s *OfCombination) SchemaForValidation() schema.Node { return s.base }
func (s *OfCombination) aliasesParent() bool              { return true }

func (s *OfCombination) Title() string {
	return BranchTitle(s.base, s.index)
}

func (s *OfCombination) ReadOnly() bool {
	return readOnly(s.base, s.parent)
}

func readOnly(base schema.Node, parent Schema) bool {
	if schema.Bool(base, "readOnly") {
		return true
	}
	return parent != nil && parent.ReadOnly()
}

// requiredIn reports whether name is required by container, looking through
// views that share the container location. Containers that are not objects
// make every element required.
func requiredIn(container Schema, name string) bool {
	sawObject := false
	for current := container; current != nil; current = current.Parent() {
		if schema.IsObject(current.Base()) {
			sawObject = true
			if schema.Contains(schema.StringList(current.Base(), "required"), name) {
				return true
			}
		}
		alias, ok := current.(aliased)
		if !ok || !alias.aliasesParent() {
			break
		}
	}
	return !sawObject
}

func appendSegment(pointer []string, segment string) []string {
	out := make([]string, 0, len(pointer)+1)
	out = append(out, pointer...)
	return append(out, segment)
}

func propertyOrder(base schema.Node) []string {
	props, _ := schema.Object(base, "properties")
	custom := schema.StringList(base, OrderKeyword)
	out := make([]string, 0, len(props))
	seen := make(map[string]struct{}, len(props))
	for _, name := range custom {
		if _, ok := props[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range schema.SortedKeys(props) {
		if _, ok := seen[name]; ok {
			continue
		}
		out = append(out, name)
	}
	return out
}
