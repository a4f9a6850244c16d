// Package propedit wires the editor packages together from a Config so
// applications can start editing JSON documents with a single call.
package propedit

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"

	"go.uber.org/zap"

	"github.com/goliatone/go-propedit/internal/jsonschema/loader"
	"github.com/goliatone/go-propedit/pkg/config"
	"github.com/goliatone/go-propedit/pkg/editor"
	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/validation"
	"github.com/goliatone/go-propedit/pkg/validation/script"
	"github.com/goliatone/go-propedit/pkg/validator"
)

// NewLoader constructs a document loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options pkgjsonschema.LoaderOptions) pkgjsonschema.Loader {
	return loader.New(options)
}

// NewValidator builds the schema validator described by cfg.
func NewValidator(cfg config.Config, logger *zap.Logger) *validator.Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return validator.New(cfg.ValidatorOptions(logger)...)
}

// NewEditor builds an editor from cfg. fsys backs fs sources and may be nil.
// The configured script rules are compiled and registered as custom
// validators; extra options are applied last.
func NewEditor(cfg config.Config, fsys fs.FS, logger *zap.Logger, extra ...editor.Option) (*editor.Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rules, err := script.CompileAll(cfg.Rules, script.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("propedit: %w", err)
	}
	engine := validation.NewEngine(
		validation.WithValidator(NewValidator(cfg, logger)),
		validation.WithLogger(logger),
	)
	options := []editor.Option{
		editor.WithLogger(logger),
		editor.WithLoader(NewLoader(cfg.LoaderOptions(fsys))),
		editor.WithResolveOptions(cfg.ResolveOptions(logger)),
		editor.WithEngine(engine),
		editor.WithValidators(rules...),
	}
	return editor.New(append(options, extra...)...), nil
}

// LintSchema checks that raw can drive an editor under cfg. scope resolves
// relative remote references and may be nil.
func LintSchema(ctx context.Context, cfg config.Config, raw []byte, scope *url.URL, logger *zap.Logger) validation.SchemaValidationResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	return validation.ValidateSchema(ctx, raw, validation.SchemaValidationOptions{
		Loader:          NewLoader(cfg.LoaderOptions(nil)),
		ResolverOptions: cfg.ResolveOptions(logger),
		Scope:           scope,
		Validator:       NewValidator(cfg, logger),
	})
}
