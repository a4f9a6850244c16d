package model

import (
	"github.com/goliatone/go-propedit/pkg/bindable"
	"github.com/goliatone/go-propedit/pkg/effective"
)

// Kind names a model variant.
type Kind string

const (
	KindString           Kind = "string"
	KindMultiLine        Kind = "multi-line"
	KindNumber           Kind = "number"
	KindInteger          Kind = "integer"
	KindFormattedInteger Kind = "formatted-integer"
	KindBoolean          Kind = "boolean"
	KindEnum             Kind = "enum"
	KindEnumSet          Kind = "enum-set"
	KindArray            Kind = "array"
	KindTuple            Kind = "tuple"
	KindObject           Kind = "object"
	KindOneOf            Kind = "one-of"
	KindColor            Kind = "color"
	KindDate             Kind = "date"
	KindLocalTime        Kind = "local-time"
	KindIDReference      Kind = "id-reference"
	KindDataReference    Kind = "data-reference"
	KindUnsupported      Kind = "unsupported"
)

// Model is the type independent surface shared by every variant.
type Model interface {
	Kind() Kind
	Schema() effective.Schema
	// Bind re-points the model at b. A nil binding leaves the model unbound:
	// reads report no value and writes are dropped.
	Bind(b bindable.Bindable)
	Bound() bindable.Bindable
	// RawValue returns the JSON value at the model location.
	RawValue() any
	// SetRawValue writes a JSON value at the model location.
	SetRawValue(value any)
	// RawDefault returns the schema default.
	RawDefault() any
	ValidationErrors() []string
	SetValidationErrors(messages []string)
	PreviewString() string
}

// Converter maps between JSON values and T.
type Converter[T any] interface {
	// FromJSON converts raw. It reports false for nil or values that cannot
	// be represented as T.
	FromJSON(raw any) (T, bool)
	ToJSON(value T) any
}

// TypeModel is the generic model implementation embedded by every variant.
type TypeModel[T any] struct {
	kind    Kind
	schema  effective.Schema
	bound   bindable.Bindable
	conv    Converter[T]
	errors  []string
	preview func(raw any) string
}

func newTypeModel[T any](kind Kind, s effective.Schema, conv Converter[T]) TypeModel[T] {
	return TypeModel[T]{kind: kind, schema: s, conv: conv, preview: previewJSON}
}

func (m *TypeModel[T]) Kind() Kind                 { return m.kind }
func (m *TypeModel[T]) Schema() effective.Schema   { return m.schema }
func (m *TypeModel[T]) Bound() bindable.Bindable   { return m.bound }
func (m *TypeModel[T]) Bind(b bindable.Bindable)   { m.bound = b }
func (m *TypeModel[T]) ValidationErrors() []string { return m.errors }

func (m *TypeModel[T]) SetValidationErrors(messages []string) {
	m.errors = messages
}

func (m *TypeModel[T]) RawValue() any {
	if m.bound == nil {
		return nil
	}
	return m.bound.Value(m.schema)
}

func (m *TypeModel[T]) SetRawValue(value any) {
	if m.bound == nil {
		return
	}
	m.bound.SetValue(m.schema, value)
}

func (m *TypeModel[T]) RawDefault() any {
	return m.schema.DefaultValue()
}

// Value returns the converted value, or false when unbound, null or not
// convertible.
func (m *TypeModel[T]) Value() (T, bool) {
	return m.conv.FromJSON(m.RawValue())
}

// SetValue converts and writes value. Unbound models ignore the call.
func (m *TypeModel[T]) SetValue(value T) {
	m.SetRawValue(m.conv.ToJSON(value))
}

// Clear removes the value.
func (m *TypeModel[T]) Clear() {
	m.SetRawValue(nil)
}

// DefaultValue returns the converted schema default.
func (m *TypeModel[T]) DefaultValue() (T, bool) {
	return m.conv.FromJSON(m.RawDefault())
}

// Valid reports whether no validation message is attached.
func (m *TypeModel[T]) Valid() bool {
	return len(m.errors) == 0
}

// PreviewString renders the current value as sanitized plain text.
func (m *TypeModel[T]) PreviewString() string {
	return sanitize(m.preview(m.RawValue()))
}
