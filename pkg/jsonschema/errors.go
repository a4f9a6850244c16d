package jsonschema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPointer marks a malformed JSON Pointer fragment in a $ref.
	ErrInvalidPointer = errors.New("jsonschema: invalid json pointer")
	// ErrRefNotFound marks a well formed reference whose target does not exist.
	ErrRefNotFound = errors.New("jsonschema: reference target not found")
	// ErrRefCycle marks a $ref chain that points back to itself.
	ErrRefCycle = errors.New("jsonschema: reference cycle")
)

// RefError reports a $ref that could not be resolved. Remote fetch failures
// wrap the underlying I/O error.
type RefError struct {
	Ref      string
	Location string
	Err      error
}

func (e *RefError) Error() string {
	var b strings.Builder
	b.WriteString("jsonschema resolver: resolve ")
	fmt.Fprintf(&b, "%q", e.Ref)
	if e.Location != "" {
		b.WriteString(" (")
		b.WriteString(e.Location)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RefError) Unwrap() error {
	return e.Err
}
