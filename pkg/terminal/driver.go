package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user interrupted a prompt.
var ErrAborted = errors.New("terminal: aborted")

// InputConfig configures a basic text input prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Suggest   func(partial string) []string
	Validator func(string) error
}

// ConfirmConfig configures a yes/no style prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig configures a single or multi-select prompt.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Defaults     []int // multi-select; indices into Options
	Help         string
	PageSize     int
}

// TextAreaConfig configures a multi-line text prompt.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// PromptDriver abstracts the terminal so sessions can be tested without one.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

// SurveyOption configures the survey driver.
type SurveyOption func(*surveyDriver)

// WithStdio binds prompts to the given streams instead of the process
// terminal.
func WithStdio(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) SurveyOption {
	return func(d *surveyDriver) {
		d.out = out
		d.askOpts = append(d.askOpts, survey.WithStdio(in, out, errOut))
	}
}

type surveyDriver struct {
	out     io.Writer
	askOpts []survey.AskOpt
}

// NewSurveyDriver returns a driver backed by survey prompts.
func NewSurveyDriver(options ...SurveyOption) PromptDriver {
	d := &surveyDriver{out: os.Stdout}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// ask runs prompt once ctx is still live and maps interrupts to ErrAborted.
func ask[T any](ctx context.Context, d *surveyDriver, prompt survey.Prompt, extra ...survey.AskOpt) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}
	opts := append(append([]survey.AskOpt(nil), d.askOpts...), extra...)
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return out, ErrAborted
		}
		return out, err
	}
	return out, nil
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var extra []survey.AskOpt
	if validate := cfg.Validator; validate != nil {
		extra = append(extra, survey.WithValidator(func(ans interface{}) error {
			text, _ := ans.(string)
			return validate(text)
		}))
	}
	return ask[string](ctx, d, &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
		Suggest: cfg.Suggest,
	}, extra...)
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	return ask[bool](ctx, d, &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default})
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help, PageSize: cfg.PageSize}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.DefaultIndex]
	}
	return ask[int](ctx, d, prompt)
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	prompt := &survey.MultiSelect{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help, PageSize: cfg.PageSize}
	var defaults []string
	for _, idx := range cfg.Defaults {
		if idx >= 0 && idx < len(cfg.Options) {
			defaults = append(defaults, cfg.Options[idx])
		}
	}
	if len(defaults) > 0 {
		prompt.Default = defaults
	}
	return ask[[]int](ctx, d, prompt)
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	return ask[string](ctx, d, &survey.Multiline{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default})
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}
