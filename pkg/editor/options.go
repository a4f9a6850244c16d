package editor

import (
	"net/url"

	"go.uber.org/zap"

	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/model"
	"github.com/goliatone/go-propedit/pkg/validation"
)

// ResolutionScopeProvider supplies the base URI against which relative remote
// references of an element resolve.
type ResolutionScopeProvider interface {
	ResolutionScope(elementID string) (*url.URL, bool)
}

// ScopeFunc adapts a function to ResolutionScopeProvider.
type ScopeFunc func(elementID string) (*url.URL, bool)

// ResolutionScope implements ResolutionScopeProvider.
func (f ScopeFunc) ResolutionScope(elementID string) (*url.URL, bool) {
	return f(elementID)
}

type noScope struct{}

func (noScope) ResolutionScope(string) (*url.URL, bool) { return nil, false }

// Option customises the editor configuration.
type Option func(*Editor)

// WithLogger sets the logger shared by the editor components.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLoader injects the loader used for remote references.
func WithLoader(loader pkgjsonschema.Loader) Option {
	return func(e *Editor) {
		e.loader = loader
	}
}

// WithResolveOptions sets the reference resolution bounds.
func WithResolveOptions(opts pkgjsonschema.ResolveOptions) Option {
	return func(e *Editor) {
		e.resolveOpts = opts
	}
}

// WithScopeProvider sets the resolution scope provider.
func WithScopeProvider(provider ResolutionScopeProvider) Option {
	return func(e *Editor) {
		if provider != nil {
			e.scopes = provider
		}
	}
}

// WithReferences sets the provider backing reference formats.
func WithReferences(refs model.ReferenceProvider) Option {
	return func(e *Editor) {
		if refs != nil {
			e.refs = refs
		}
	}
}

// WithEngine injects the validation engine.
func WithEngine(engine *validation.Engine) Option {
	return func(e *Editor) {
		if engine != nil {
			e.engine = engine
		}
	}
}

// WithValidators registers custom validators at construction.
func WithValidators(validators ...validation.CustomValidator) Option {
	return func(e *Editor) {
		for _, v := range validators {
			if v == nil {
				continue
			}
			e.nextValidator++
			e.validators = append(e.validators, registeredValidator{id: e.nextValidator, validator: v})
		}
	}
}

// WithReadOnly starts the editor in read-only mode.
func WithReadOnly(readOnly bool) Option {
	return func(e *Editor) {
		e.readOnly = readOnly
	}
}
