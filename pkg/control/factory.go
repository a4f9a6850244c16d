package control

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/model"
	"github.com/goliatone/go-propedit/pkg/schema"
	"github.com/goliatone/go-propedit/pkg/validator"
)

// ErrUnsupportedSchema marks a schema shape that cannot be edited at all,
// such as an array without items.
var ErrUnsupportedSchema = errors.New("control: unsupported schema")

// Option configures a Factory.
type Option func(*Factory)

// WithMatcher sets the matcher used to guess union branches.
func WithMatcher(matcher model.BranchMatcher) Option {
	return func(f *Factory) {
		if matcher != nil {
			f.matcher = matcher
		}
	}
}

// WithReferences sets the provider backing reference formats.
func WithReferences(refs model.ReferenceProvider) Option {
	return func(f *Factory) {
		if refs != nil {
			f.refs = refs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Factory maps effective schema views to controls.
type Factory struct {
	matcher model.BranchMatcher
	refs    model.ReferenceProvider
	logger  *zap.Logger
	merged  map[[2]uintptr]mergedBranch
}

// mergedBranch keeps its inputs reachable so their addresses stay unique.
type mergedBranch struct {
	union, branch, merged schema.Node
}

// NewFactory returns a factory with a default validator as branch matcher
// and no-op references.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		refs:   model.NoopReferences{},
		logger: zap.NewNop(),
		merged: make(map[[2]uintptr]mergedBranch),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.matcher == nil {
		f.matcher = validator.New(validator.WithLogger(f.logger))
	}
	return f
}

// Create builds the control tree for s. The tree is unbound until BindTo is
// called. Unsupported shapes that make editing impossible fail with
// ErrUnsupportedSchema; unknown keyword combinations fall back to an
// unsupported placeholder control.
func (f *Factory) Create(s effective.Schema) (*Control, error) {
	if s == nil {
		return nil, errors.New("control: schema is nil")
	}
	return f.create(s, nil)
}

// create builds a control; readOnly lists properties of an object control
// that must be read-only.
func (f *Factory) create(s effective.Schema, readOnly map[string]struct{}) (*Control, error) {
	base := s.Base()
	if member, ok := effective.NullableMember(base); ok {
		s = effective.NewNullable(s, member)
		base = s.Base()
	}

	if branches, key := unionBranches(base); key != "" {
		return f.createOneOf(s, branches)
	}

	switch schema.String(base, "format") {
	case validator.FormatColor:
		return f.leaf(s, model.NewColor(s)), nil
	case validator.FormatIDReference:
		return f.leaf(s, model.NewIDReference(s, f.refs)), nil
	case validator.FormatDataReference:
		return f.leaf(s, model.NewDataReference(s, f.refs)), nil
	case validator.FormatDate:
		return f.leaf(s, model.NewDate(s)), nil
	case validator.FormatLocalTime, validator.FormatTime:
		return f.leaf(s, model.NewLocalTime(s)), nil
	case validator.FormatMultiLine:
		return f.leaf(s, model.NewMultiLine(s)), nil
	}

	if format, ok := model.ParseIntFormat(base); ok {
		return f.leaf(s, model.NewFormattedInteger(s, format)), nil
	}
	if len(model.EnumOptions(base)) > 0 {
		return f.leaf(s, model.NewEnum(s)), nil
	}

	types := schema.Types(base)
	if len(types) > 1 {
		f.logger.Debug("unsupported type union", zap.Strings("types", types), zap.String("pointer", effective.PointerString(s.Pointer())))
		return f.leaf(s, model.NewUnsupported(s)), nil
	}

	switch {
	case schema.HasType(base, "array"):
		return f.createArray(s)
	case schema.IsObject(base):
		return f.createObject(s, readOnly)
	case schema.HasType(base, "string"):
		return f.leaf(s, model.NewString(s)), nil
	case schema.HasType(base, "integer"):
		return f.leaf(s, model.NewInteger(s)), nil
	case schema.HasType(base, "number"):
		return f.leaf(s, model.NewNumber(s)), nil
	case schema.HasType(base, "boolean"):
		return f.leaf(s, model.NewBoolean(s)), nil
	}
	return f.leaf(s, model.NewUnsupported(s)), nil
}

func (f *Factory) leaf(s effective.Schema, m model.Model) *Control {
	return &Control{schema: s, model: m, shape: ShapeLeaf, factory: f}
}

func (f *Factory) createObject(s effective.Schema, readOnly map[string]struct{}) (*Control, error) {
	c := &Control{schema: s, model: model.NewObject(s), shape: ShapeObject, factory: f}
	props, _ := schema.Object(s.Base(), "properties")
	for _, name := range s.PropertyOrder() {
		node, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		view := effective.NewProperty(s, name, node)
		if _, forced := readOnly[name]; forced {
			view = effective.NewForceReadOnly(view)
		}
		child, err := f.create(view, nil)
		if err != nil {
			return nil, err
		}
		c.properties = append(c.properties, child)
	}
	return c, nil
}

func (f *Factory) createArray(s effective.Schema) (*Control, error) {
	base := s.Base()
	switch items := base["items"].(type) {
	case []any:
		c := &Control{schema: s, model: model.NewTuple(s), shape: ShapeTuple, factory: f}
		for idx, entry := range items {
			node, ok := entry.(map[string]any)
			if !ok {
				node = schema.Node{}
			}
			child, err := f.create(effective.NewItem(s, idx, node), nil)
			if err != nil {
				return nil, err
			}
			c.slots = append(c.slots, child)
		}
		return c, nil
	case map[string]any:
		if _, ok := items["enum"].([]any); ok {
			return f.leaf(s, model.NewEnumSet(s)), nil
		}
		// Probe the element schema so unsupported shapes fail at build time.
		if _, err := f.create(effective.NewItem(s, 0, items), nil); err != nil {
			return nil, err
		}
		return &Control{schema: s, model: model.NewArray(s), shape: ShapeArray, factory: f, items: items}, nil
	default:
		return nil, fmt.Errorf("%w: array without items at %s", ErrUnsupportedSchema, effective.PointerString(s.Pointer()))
	}
}

func (f *Factory) createOneOf(s effective.Schema, nodes []schema.Node) (*Control, error) {
	discriminator := effective.DetectDiscriminator(nodes)
	views := make([]effective.Schema, 0, len(nodes))
	for idx, node := range nodes {
		views = append(views, effective.NewBranch(s, idx, f.withSiblings(s.Base(), node)))
	}
	union := model.NewOneOf(s, views, discriminator, f.matcher)
	c := &Control{schema: s, model: union, shape: ShapeOneOf, factory: f}

	var readOnly map[string]struct{}
	if discriminator != "" {
		readOnly = map[string]struct{}{discriminator: {}}
	}
	for _, view := range views {
		child, err := f.create(view, readOnly)
		if err != nil {
			return nil, err
		}
		c.branches = append(c.branches, child)
	}
	return c, nil
}

// unionBranches returns the oneOf or anyOf branch list of node.
func unionBranches(node schema.Node) ([]schema.Node, string) {
	for _, key := range []string{"oneOf", "anyOf"} {
		list, ok := schema.List(node, key)
		if !ok || len(list) == 0 {
			continue
		}
		out := make([]schema.Node, 0, len(list))
		for _, entry := range list {
			branch, ok := entry.(map[string]any)
			if !ok {
				branch = schema.Node{}
			}
			out = append(out, branch)
		}
		return out, key
	}
	return nil, ""
}

// withSiblings folds the keywords declared next to a union into a branch so
// the branch is editable on its own, for example a shared type or shared
// properties. Results are cached per (union, branch) pair so repeated builds
// hand the validator the same node.
func (f *Factory) withSiblings(union, branch schema.Node) schema.Node {
	shared := make(schema.Node, len(union))
	for key, value := range union {
		switch key {
		case "oneOf", "anyOf", "title", "description", "default", jsonschema.RefAnnotation, "$id", "$schema", "definitions", "$defs":
			continue
		}
		shared[key] = value
	}
	if len(shared) == 0 {
		return branch
	}
	key := [2]uintptr{reflect.ValueOf(union).Pointer(), reflect.ValueOf(branch).Pointer()}
	if entry, ok := f.merged[key]; ok {
		return entry.merged
	}
	merged := jsonschema.Merge(shared, branch)
	f.merged[key] = mergedBranch{union: union, branch: branch, merged: merged}
	return merged
}
