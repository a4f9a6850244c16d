// Package control builds the tree of controls pairing each effective schema
// node with its model, and keeps the tree bound to the live document.
package control

import (
	"github.com/goliatone/go-propedit/pkg/bindable"
	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/model"
	"github.com/goliatone/go-propedit/pkg/schema"
)

// Shape identifies how a control manages its children.
type Shape int

const (
	ShapeLeaf Shape = iota
	ShapeObject
	ShapeArray
	ShapeTuple
	ShapeOneOf
)

// Control pairs a schema view with its model and child controls.
type Control struct {
	schema   effective.Schema
	model    model.Model
	shape    Shape
	factory  *Factory
	bound    bindable.Bindable
	children []*Control

	// object: every property control, exposed only while the object exists.
	properties []*Control
	// array: element schema.
	items schema.Node
	// tuple: one control per positional schema.
	slots []*Control
	// oneOf: one control per branch, the active one is exposed.
	branches []*Control
}

// Schema returns the effective view the control edits.
func (c *Control) Schema() effective.Schema { return c.schema }

// Model returns the model bound to the control location.
func (c *Control) Model() model.Model { return c.model }

// Shape returns the child management strategy.
func (c *Control) Shape() Shape { return c.shape }

// Children returns the child controls currently exposed: the properties of
// an existing object, the elements of an array, the tuple slots, or the
// active union branch.
func (c *Control) Children() []*Control { return c.children }

// Pointer returns the JSON pointer the control edits.
func (c *Control) Pointer() string { return effective.PointerString(c.schema.Pointer()) }

// ActiveBranch returns the exposed union branch control, or nil.
func (c *Control) ActiveBranch() *Control {
	if c.shape != ShapeOneOf || len(c.children) == 0 {
		return nil
	}
	return c.children[0]
}

// BindTo re-points the control and its subtree at b. Models are kept; array
// element controls are added or dropped to match the bound array length.
func (c *Control) BindTo(b bindable.Bindable) error {
	c.bound = b
	c.model.Bind(b)

	switch c.shape {
	case ShapeObject:
		return c.bindObject()
	case ShapeArray:
		return c.bindArray()
	case ShapeTuple:
		return c.bindTuple()
	case ShapeOneOf:
		return c.bindOneOf()
	default:
		return nil
	}
}

func (c *Control) bindObject() error {
	value, ok := c.model.RawValue().(map[string]any)
	if !ok || c.bound == nil {
		for _, child := range c.properties {
			if err := child.BindTo(nil); err != nil {
				return err
			}
		}
		c.children = nil
		return nil
	}
	container := bindable.NewObject(c.bound, value)
	for _, child := range c.properties {
		if err := child.BindTo(container); err != nil {
			return err
		}
	}
	c.children = c.properties
	return nil
}

func (c *Control) bindArray() error {
	value, ok := c.model.RawValue().([]any)
	if !ok || c.bound == nil {
		c.children = nil
		return nil
	}
	if len(c.children) > len(value) {
		c.children = c.children[:len(value)]
	}
	for idx := len(c.children); idx < len(value); idx++ {
		child, err := c.factory.create(effective.NewItem(c.schema, idx, c.items), nil)
		if err != nil {
			return err
		}
		c.children = append(c.children, child)
	}
	container := bindable.NewArray(c.bound, value)
	for idx, child := range c.children {
		if err := child.BindTo(bindable.NewArrayEntry(container, idx)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Control) bindTuple() error {
	value, _ := c.model.RawValue().([]any)
	var container bindable.Bindable
	if value != nil && c.bound != nil {
		container = bindable.NewArray(c.bound, value)
	}
	for _, child := range c.slots {
		if err := child.BindTo(container); err != nil {
			return err
		}
	}
	if container == nil {
		c.children = nil
		return nil
	}
	c.children = c.slots
	return nil
}

func (c *Control) bindOneOf() error {
	union := c.model.(*model.OneOfModel)
	active := union.Active()
	for idx, branch := range c.branches {
		if idx == active {
			continue
		}
		if err := branch.BindTo(nil); err != nil {
			return err
		}
	}
	if active < 0 || c.bound == nil {
		c.children = nil
		return nil
	}
	branch := c.branches[active]
	if err := branch.BindTo(c.bound); err != nil {
		return err
	}
	c.children = []*Control{branch}
	return nil
}

// Flatten returns the subtree in post-order: children before their parent.
func Flatten(root *Control) []*Control {
	if root == nil {
		return nil
	}
	var out []*Control
	var walk func(*Control)
	walk = func(c *Control) {
		for _, child := range c.children {
			walk(child)
		}
		out = append(out, c)
	}
	walk(root)
	return out
}

// Find returns the outermost exposed control editing pointer.
func Find(root *Control, pointer string) *Control {
	if root == nil {
		return nil
	}
	if root.Pointer() == pointer {
		return root
	}
	for _, child := range root.children {
		if found := Find(child, pointer); found != nil {
			return found
		}
	}
	return nil
}
