package validation

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/goliatone/go-propedit/pkg/control"
	"github.com/goliatone/go-propedit/pkg/effective"
	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/validator"
)

// SchemaIssue describes a problem with a schema document.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of ValidateSchema.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// SchemaValidationOptions configures ValidateSchema.
type SchemaValidationOptions struct {
	Loader          pkgjsonschema.Loader
	ResolverOptions pkgjsonschema.ResolveOptions
	// Scope resolves relative remote references.
	Scope     *url.URL
	Validator *validator.Validator
}

// ValidateSchema checks that raw can drive an editor: it must parse, its
// references must resolve, it must be a valid schema for the configured
// draft, and every array must describe its items.
func ValidateSchema(ctx context.Context, raw []byte, opts SchemaValidationOptions) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}
	fail := func(issues ...SchemaIssue) SchemaValidationResult {
		result.Valid = false
		result.Issues = append(result.Issues, issues...)
		return result
	}

	root, err := pkgjsonschema.ParseSchema(raw)
	if err != nil {
		return fail(issueFromError(err))
	}

	normalized, err := pkgjsonschema.NewResolver(opts.Loader, opts.ResolverOptions).Normalize(ctx, root, opts.Scope)
	if err != nil {
		return fail(issueFromError(err))
	}

	v := opts.Validator
	if v == nil {
		v = validator.New()
	}
	if _, err := v.Compile(normalized); err != nil {
		var (
			invalid *jsonschema.SchemaValidationError
			inner   *jsonschema.ValidationError
		)
		if errors.As(err, &invalid) && errors.As(invalid.Err, &inner) {
			var issues []SchemaIssue
			for _, leaf := range validator.Leaves(inner, v.Printer()) {
				issues = append(issues, SchemaIssue{
					Path:    leaf.Pointer,
					Field:   fieldPathFromPointer(leaf.Pointer),
					Message: leaf.Message,
				})
			}
			return fail(issues...)
		}
		return fail(issueFromError(err))
	}

	if _, err := control.NewFactory(control.WithMatcher(v)).Create(effective.NewRoot(normalized)); err != nil {
		return fail(issueFromError(err))
	}
	return result
}

func issueFromError(err error) SchemaIssue {
	if err == nil {
		return SchemaIssue{Message: "unknown error"}
	}
	var refErr *pkgjsonschema.RefError
	if errors.As(err, &refErr) {
		msg := "unresolved reference"
		if refErr.Err != nil {
			msg = strings.TrimSpace(refErr.Err.Error())
		}
		return SchemaIssue{Ref: refErr.Ref, Message: msg}
	}

	msg := strings.TrimSpace(err.Error())
	path := extractJSONPointer(msg)
	if path != "" {
		msg = strings.Replace(msg, " at "+path, "", 1)
	}
	for _, prefix := range []string{"jsonschema: ", "jsonschema resolver: ", "control: ", "validator: "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	msg = strings.TrimSpace(msg)

	return SchemaIssue{
		Path:    path,
		Field:   fieldPathFromPointer(path),
		Message: msg,
	}
}

func extractJSONPointer(message string) string {
	if message == "" {
		return ""
	}
	if idx := strings.LastIndex(message, " at /"); idx >= 0 {
		return trimPointer(message[idx+4:])
	}
	return ""
}

func trimPointer(pointer string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(pointer), ".)];,")
	return strings.TrimSpace(trimmed)
}

// fieldPathFromPointer turns a pointer into a dotted field path. Schema
// keywords are dropped so schema and instance pointers read alike.
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	segments, err := effective.ParsePointer(trimmed)
	if err != nil || len(segments) == 0 {
		return ""
	}

	out := make([]string, 0, len(segments))
	for idx := 0; idx < len(segments); idx++ {
		segment := segments[idx]
		switch segment {
		case "properties":
			if idx+1 < len(segments) {
				out = append(out, segments[idx+1])
				idx++
			}
		case "items":
			out = append(out, "items")
		case "oneOf", "anyOf", "allOf":
			if idx+1 < len(segments) && isNumeric(segments[idx+1]) {
				idx++
			}
		case "$defs", "definitions":
			if idx+1 < len(segments) {
				idx++
			}
		case "":
		default:
			out = append(out, segment)
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, ".")
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
