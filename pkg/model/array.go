package model

import (
	"strconv"

	"github.com/mohae/deepcopy"

	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/schema"
)

// ArrayModel edits a JSON array. Every operation reads the whole array,
// builds a new one and writes it back, so a single change notification is
// raised per call.
type ArrayModel struct {
	TypeModel[[]any]
}

// NewArray returns an array model.
func NewArray(s effective.Schema) *ArrayModel {
	m := &ArrayModel{newTypeModel[[]any](KindArray, s, ArrayConverter{})}
	m.preview = previewItems
	return m
}

// Len returns the current length; unset arrays are empty.
func (m *ArrayModel) Len() int {
	items, _ := m.Value()
	return len(items)
}

// ItemSchema returns the items node of the array schema.
func (m *ArrayModel) ItemSchema() schema.Node {
	items, _ := schema.Object(m.schema.Base(), "items")
	return items
}

// AddItemAt inserts a new item at pos, clamped to [0, Len]. The item takes
// the items default, or an empty container for object and array items.
func (m *ArrayModel) AddItemAt(pos int) {
	m.insert(pos, NewItemValue(m.ItemSchema()))
}

// RemoveItem deletes the item at index. Out of range indexes are ignored.
func (m *ArrayModel) RemoveItem(index int) {
	items, _ := m.Value()
	if index < 0 || index >= len(items) {
		return
	}
	out := make([]any, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	m.SetValue(out)
}

// MoveItemUp swaps index with its predecessor. The first index is a no-op.
func (m *ArrayModel) MoveItemUp(index int) {
	items, _ := m.Value()
	if index <= 0 || index >= len(items) {
		return
	}
	m.SetValue(swapped(items, index-1, index))
}

// MoveItemDown swaps index with its successor. The last index is a no-op.
func (m *ArrayModel) MoveItemDown(index int) {
	items, _ := m.Value()
	if index < 0 || index >= len(items)-1 {
		return
	}
	m.SetValue(swapped(items, index, index+1))
}

func (m *ArrayModel) insert(pos int, value any) {
	items, _ := m.Value()
	if pos < 0 {
		pos = 0
	}
	if pos > len(items) {
		pos = len(items)
	}
	out := make([]any, 0, len(items)+1)
	out = append(out, items[:pos]...)
	out = append(out, value)
	out = append(out, items[pos:]...)
	m.SetValue(out)
}

func swapped(items []any, i, j int) []any {
	out := append([]any(nil), items...)
	out[i], out[j] = out[j], out[i]
	return out
}

// NewItemValue returns the initial value for a new element described by
// node: a copy of its default, or an empty object or array.
func NewItemValue(node schema.Node) any {
	if value, ok := node["default"]; ok {
		return deepcopy.Copy(value)
	}
	switch {
	case schema.IsObject(node):
		return map[string]any{}
	case schema.HasType(node, "array"):
		return []any{}
	default:
		return nil
	}
}

func previewItems(raw any) string {
	items, ok := raw.([]any)
	if !ok {
		return ""
	}
	return previewJSON(items)
}

// EnumSetModel edits an array of unique values drawn from the items enum.
type EnumSetModel struct {
	ArrayModel
	options []any
}

// NewEnumSet returns an enum set model.
func NewEnumSet(s effective.Schema) *EnumSetModel {
	m := &EnumSetModel{ArrayModel: *NewArray(s)}
	m.kind = KindEnumSet
	m.options = EnumOptions(m.ItemSchema())
	return m
}

// Options returns the selectable values.
func (m *EnumSetModel) Options() []any { return m.options }

// Contains reports whether option index is selected.
func (m *EnumSetModel) Contains(index int) bool {
	if index < 0 || index >= len(m.options) {
		return false
	}
	items, _ := m.Value()
	return indexOf(items, m.options[index]) >= 0
}

// Toggle adds or removes option index.
func (m *EnumSetModel) Toggle(index int) {
	if index < 0 || index >= len(m.options) {
		return
	}
	items, _ := m.Value()
	option := m.options[index]
	if pos := indexOf(items, option); pos >= 0 {
		m.RemoveItem(pos)
		return
	}
	m.insert(len(items), option)
}

// TupleModel edits a fixed position array whose items keyword is a list of
// schemas.
type TupleModel struct {
	TypeModel[[]any]
}

// NewTuple returns a tuple model.
func NewTuple(s effective.Schema) *TupleModel {
	m := &TupleModel{newTypeModel[[]any](KindTuple, s, ArrayConverter{})}
	m.preview = previewItems
	return m
}

// ItemSchemas returns the positional item schemas.
func (m *TupleModel) ItemSchemas() []schema.Node {
	list, _ := schema.List(m.schema.Base(), "items")
	out := make([]schema.Node, 0, len(list))
	for _, entry := range list {
		node, _ := entry.(map[string]any)
		out = append(out, node)
	}
	return out
}

// Ensure makes sure the tuple holds at least one slot per item schema,
// filling gaps with item defaults. It writes only when something changed.
func (m *TupleModel) Ensure() {
	items, _ := m.Value()
	nodes := m.ItemSchemas()
	if len(items) >= len(nodes) {
		return
	}
	out := append([]any(nil), items...)
	for idx := len(out); idx < len(nodes); idx++ {
		out = append(out, NewItemValue(nodes[idx]))
	}
	m.SetValue(out)
}

// ItemTitle returns a display title for tuple slot index.
func (m *TupleModel) ItemTitle(index int) string {
	nodes := m.ItemSchemas()
	if index >= 0 && index < len(nodes) {
		if title := schema.String(nodes[index], "title"); title != "" {
			return title
		}
	}
	return strconv.Itoa(index)
}
