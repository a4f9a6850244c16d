package validation

import (
	"github.com/goliatone/go-propedit/pkg/model"
)

// ReferenceValidator reports id-reference and data-reference values the
// reference provider does not know.
type ReferenceValidator struct {
	// Message is reported for unknown references. It defaults to
	// "unknown reference".
	Message string
}

// Select implements CustomValidator.
func (r ReferenceValidator) Select(m model.Model) bool {
	_, ok := m.(*model.ReferenceModel)
	return ok
}

// Validate implements CustomValidator.
func (r ReferenceValidator) Validate(m model.Model, _ string) []Result {
	ref, ok := m.(*model.ReferenceModel)
	if !ok || ref.ValidReference() {
		return nil
	}
	msg := r.Message
	if msg == "" {
		msg = "unknown reference"
	}
	return []Result{{Message: msg}}
}
