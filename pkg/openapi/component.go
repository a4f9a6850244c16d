package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-propedit/pkg/jsonschema"
)

// ErrComponentNotFound marks a component name absent from the document.
var ErrComponentNotFound = errors.New("openapi: component schema not found")

// Options configures component extraction.
type Options struct {
	// Validate runs the kin-openapi document validation before extraction.
	Validate bool
}

// Option mutates Options.
type Option func(*Options)

// WithValidation toggles document validation.
func WithValidation(enabled bool) Option {
	return func(opts *Options) {
		opts.Validate = enabled
	}
}

func newOptions(opts ...Option) Options {
	cfg := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Components lists the component schema names of an OpenAPI document.
func Components(ctx context.Context, raw []byte, opts ...Option) ([]string, error) {
	spec, err := load(ctx, raw, newOptions(opts...))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ComponentSchema returns the component schema name as a JSON Schema root.
// Every component schema is carried under components/schemas so references
// of the form #/components/schemas/X resolve against the root. OpenAPI
// nullable flags become a null type member.
func ComponentSchema(ctx context.Context, raw []byte, name string, opts ...Option) (map[string]any, error) {
	spec, err := load(ctx, raw, newOptions(opts...))
	if err != nil {
		return nil, err
	}
	if _, ok := spec.Components.Schemas[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}

	payload, err := jsonschema.MarshalJSON(spec.Components.Schemas)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode components: %w", err)
	}
	decoded, err := jsonschema.ParseJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("openapi: decode components: %w", err)
	}
	schemas, _ := decoded.(map[string]any)
	for key, value := range schemas {
		schemas[key] = convertNullable(value)
	}

	component, ok := schemas[name].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}
	root := make(map[string]any, len(component)+1)
	for key, value := range component {
		root[key] = value
	}
	if _, ok := root["title"]; !ok {
		root["title"] = name
	}
	root["components"] = map[string]any{"schemas": schemas}
	return root, nil
}

func load(ctx context.Context, raw []byte, opts Options) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if opts.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document has no component schemas")
	}
	return spec, nil
}

// convertNullable rewrites nullable: true into a type list containing null,
// at any depth.
func convertNullable(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			typed[key] = convertNullable(child)
		}
		nullable, _ := typed["nullable"].(bool)
		if !nullable {
			return typed
		}
		delete(typed, "nullable")
		switch current := typed["type"].(type) {
		case string:
			typed["type"] = []any{current, "null"}
		case []any:
			typed["type"] = append(current, "null")
		}
		return typed
	case []any:
		for idx, child := range typed {
			typed[idx] = convertNullable(child)
		}
		return typed
	default:
		return value
	}
}
