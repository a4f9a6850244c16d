package model

import (
	"strings"

	"github.com/goliatone/go-propedit/pkg/effective"
)

// ObjectModel edits a JSON object whose properties are handled by child
// controls.
type ObjectModel struct {
	TypeModel[map[string]any]
}

// NewObject returns an object model.
func NewObject(s effective.Schema) *ObjectModel {
	m := &ObjectModel{newTypeModel[map[string]any](KindObject, s, ObjectConverter{})}
	m.preview = m.previewProperties
	return m
}

// Ensure creates an empty object when the value is unset and returns the
// object now stored.
func (m *ObjectModel) Ensure() map[string]any {
	if value, ok := m.Value(); ok {
		return value
	}
	created := map[string]any{}
	m.SetValue(created)
	value, _ := m.Value()
	return value
}

// previewProperties lists the set properties in display order.
func (m *ObjectModel) previewProperties(raw any) string {
	value, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(value))
	for _, name := range m.schema.PropertyOrder() {
		entry, present := value[name]
		if !present || entry == nil {
			continue
		}
		parts = append(parts, name+": "+previewJSON(entry))
	}
	return strings.Join(parts, ", ")
}
