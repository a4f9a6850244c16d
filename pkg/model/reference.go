package model

import (
	"strings"

	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/schema"
)

// ReferenceProvider resolves references between documents shown by the
// host. Implementations are supplied by the embedding application.
type ReferenceProvider interface {
	// Proposals returns completion candidates for partial input.
	Proposals(partial string) []string
	// Description returns a human readable description of id.
	Description(id string) string
	// IsValidReference reports whether input names an existing target.
	IsValidReference(input string) bool
	// DataAndSchema returns the referenced document and its schema.
	DataAndSchema(id string) (any, schema.Node, bool)
}

// NoopReferences offers no proposals and accepts every reference.
type NoopReferences struct{}

func (NoopReferences) Proposals(string) []string { return nil }

func (NoopReferences) Description(string) string { return "" }

func (NoopReferences) IsValidReference(string) bool { return true }

func (NoopReferences) DataAndSchema(string) (any, schema.Node, bool) { return nil, nil, false }

// ReferenceModel edits a string naming another element.
type ReferenceModel struct {
	TypeModel[string]
	refs ReferenceProvider
}

// NewIDReference returns a model for the id-reference format.
func NewIDReference(s effective.Schema, refs ReferenceProvider) *ReferenceModel {
	return newReference(KindIDReference, s, refs)
}

// NewDataReference returns a model for the data-reference format.
func NewDataReference(s effective.Schema, refs ReferenceProvider) *ReferenceModel {
	return newReference(KindDataReference, s, refs)
}

func newReference(kind Kind, s effective.Schema, refs ReferenceProvider) *ReferenceModel {
	if refs == nil {
		refs = NoopReferences{}
	}
	m := &ReferenceModel{TypeModel: newTypeModel[string](kind, s, StringConverter{}), refs: refs}
	m.preview = func(raw any) string {
		id, ok := raw.(string)
		if !ok {
			return ""
		}
		if desc := strings.TrimSpace(refs.Description(id)); desc != "" {
			return id + " (" + desc + ")"
		}
		return id
	}
	return m
}

// Proposals returns completion candidates for partial.
func (m *ReferenceModel) Proposals(partial string) []string {
	return m.refs.Proposals(partial)
}

// ValidReference reports whether the current value resolves. Unset values
// are valid; required-ness is checked by schema validation.
func (m *ReferenceModel) ValidReference() bool {
	value, ok := m.Value()
	if !ok || value == "" {
		return true
	}
	return m.refs.IsValidReference(value)
}

// Target returns the referenced document and schema.
func (m *ReferenceModel) Target() (any, schema.Node, bool) {
	value, ok := m.Value()
	if !ok {
		return nil, nil, false
	}
	return m.refs.DataAndSchema(value)
}
