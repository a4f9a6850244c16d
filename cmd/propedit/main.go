package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/goliatone/go-propedit"
	"github.com/goliatone/go-propedit/pkg/config"
	"github.com/goliatone/go-propedit/pkg/editor"
	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/openapi"
	"github.com/goliatone/go-propedit/pkg/terminal"
	"github.com/goliatone/go-propedit/pkg/validation"
)

// errInvalid signals that a command reported problems and already printed
// them.
var errInvalid = errors.New("invalid")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{name: "check", summary: "validate a document against a schema", run: runCheck},
	{name: "edit", summary: "edit a document interactively", run: runEdit},
	{name: "lint", summary: "check that schemas can drive an editor", run: runLint},
	{name: "components", summary: "list the schemas of an OpenAPI document", run: runComponents},
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		err := cmd.run(ctx, args[1:], stdout, stderr)
		switch {
		case err == nil:
			return 0
		case errors.Is(err, errInvalid):
			return 1
		case errors.Is(err, flag.ErrHelp):
			return 2
		default:
			fmt.Fprintf(stderr, "%s: %v\n", cmd.name, err)
			return 1
		}
	}
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [flags]\n\nCommands:\n", filepath.Base(os.Args[0]))
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", cmd.name, cmd.summary)
	}
}

// inputs are the flags shared by check and edit.
type inputs struct {
	schema    string
	component string
	data      string
	config    string
}

func (in *inputs) register(fs *flag.FlagSet) {
	fs.StringVar(&in.schema, "schema", "", "JSON Schema or OpenAPI document path")
	fs.StringVar(&in.component, "component", "", "OpenAPI component schema to use")
	fs.StringVar(&in.data, "data", "", "JSON document path")
	fs.StringVar(&in.config, "config", "", "editor settings (JSON or YAML)")
}

type session struct {
	cfg    config.Config
	logger *zap.Logger
	editor *editor.Editor
	el     *editor.Element
}

func (in inputs) open(ctx context.Context) (*session, error) {
	if in.schema == "" {
		return nil, errors.New("-schema is required")
	}
	cfg := config.Default()
	if in.config != "" {
		loaded, err := config.Load(in.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	node, scope, err := readSchema(ctx, in.schema, in.component)
	if err != nil {
		return nil, err
	}
	var data any
	if in.data != "" {
		raw, err := os.ReadFile(in.data)
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
		if data, err = pkgjsonschema.ParseJSON(raw); err != nil {
			return nil, fmt.Errorf("parse data: %w", err)
		}
	}

	ed, err := propedit.NewEditor(cfg, nil, logger, editor.WithScopeProvider(editor.ScopeFunc(func(string) (*url.URL, bool) {
		return scope, scope != nil
	})))
	if err != nil {
		return nil, err
	}
	el, err := ed.Display(ctx, filepath.Base(in.schema), node, data)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, editor: ed, el: el}, nil
}

func readSchema(ctx context.Context, path, component string) (map[string]any, *url.URL, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read schema: %w", err)
	}
	scope, err := fileScope(path)
	if err != nil {
		return nil, nil, err
	}
	if component != "" {
		node, err := openapi.ComponentSchema(ctx, raw, component)
		return node, scope, err
	}
	node, err := pkgjsonschema.ParseSchema(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse schema: %w", err)
	}
	return node, scope, nil
}

func fileScope(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

func runCheck(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var in inputs
	in.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := in.open(ctx)
	if err != nil {
		return err
	}
	defer s.logger.Sync() //nolint:errcheck

	if printIssues(stdout, s.el.Issues()) {
		return errInvalid
	}
	fmt.Fprintln(stdout, "ok")
	return nil
}

func runEdit(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var in inputs
	in.register(fs)
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := in.open(ctx)
	if err != nil {
		return err
	}
	defer s.logger.Sync() //nolint:errcheck

	prompts := terminal.NewSession(terminal.WithLogger(s.logger))
	if err := prompts.Edit(ctx, s.el.Control()); err != nil {
		return err
	}
	if err := prompts.Report(ctx, s.el.Control()); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(s.el.Data(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}
	if *output == "" {
		fmt.Fprintln(stdout, string(payload))
	} else {
		if err := os.WriteFile(*output, append(payload, '\n'), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(stdout, "Document written to %s\n", *output)
	}
	if !s.el.Valid() {
		return errInvalid
	}
	return nil
}

type violation struct {
	file     string
	location string
	message  string
}

func runLint(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "editor settings (JSON or YAML)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("no schema paths given")
	}
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	var violations []violation
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		scope, err := fileScope(path)
		if err != nil {
			return err
		}
		result := propedit.LintSchema(ctx, cfg, raw, scope, nil)
		for _, issue := range result.Issues {
			location := issue.Path
			if issue.Field != "" {
				location = issue.Field
			}
			if location == "" {
				location = "(root)"
			}
			violations = append(violations, violation{file: path, location: location, message: issue.Message})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(stdout, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
	return errInvalid
}

func runComponents(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("components", flag.ContinueOnError)
	fs.SetOutput(stderr)
	validate := fs.Bool("validate", false, "validate the OpenAPI document first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one OpenAPI document path")
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	names, err := openapi.Components(ctx, raw, openapi.WithValidation(*validate))
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

// printIssues writes one line per issue and reports whether any were
// written.
func printIssues(w io.Writer, issues []validation.Issue) bool {
	for _, issue := range issues {
		pointer := issue.Pointer
		if pointer == "" {
			pointer = "/"
		}
		fmt.Fprintf(w, "%s: %s\n", pointer, issue.Message)
	}
	return len(issues) > 0
}
