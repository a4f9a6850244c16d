// Package terminal edits displayed elements interactively through terminal
// prompts, walking the control tree and committing each answer to its model.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-propedit/pkg/control"
	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/model"
)

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session prompts for every exposed control of a tree.
type Session struct {
	driver PromptDriver
	logger *zap.Logger
}

// NewSession returns a session using survey prompts unless overridden.
func NewSession(options ...Option) *Session {
	s := &Session{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}
	return s
}

// Edit walks root depth first and prompts for each editable control.
// Read-only controls are shown but not prompted.
func (s *Session) Edit(ctx context.Context, root *control.Control) error {
	if ctx == nil {
		return errors.New("terminal: context is required")
	}
	if root == nil {
		return errors.New("terminal: control tree is nil")
	}
	return s.edit(ctx, root)
}

// Report prints the current validation messages of the exposed tree.
func (s *Session) Report(ctx context.Context, root *control.Control) error {
	for _, ctrl := range control.Flatten(root) {
		messages := ctrl.Model().ValidationErrors()
		if len(messages) == 0 {
			continue
		}
		pointer := ctrl.Pointer()
		if pointer == "" {
			pointer = "/"
		}
		if err := s.driver.Info(ctx, fmt.Sprintf("%s: %s", pointer, strings.Join(messages, "; "))); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) edit(ctx context.Context, c *control.Control) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sch := c.Schema()
	m := c.Model()
	label := effective.Label(sch)
	if sch.ReadOnly() && c.Shape() == control.ShapeLeaf {
		return s.driver.Info(ctx, fmt.Sprintf("%s: %s", label, m.PreviewString()))
	}
	s.logger.Debug("prompting", zap.String("pointer", c.Pointer()), zap.String("kind", string(m.Kind())))

	switch typed := m.(type) {
	case *model.OneOfModel:
		return s.editOneOf(ctx, c, typed, label)
	case *model.ObjectModel:
		return s.editObject(ctx, c, typed, label)
	case *model.EnumSetModel:
		return s.editEnumSet(ctx, typed, label)
	case *model.ArrayModel:
		return s.editArray(ctx, c, typed, label)
	case *model.TupleModel:
		if !sch.ReadOnly() {
			typed.Ensure()
		}
		return s.editChildren(ctx, c)
	case *model.BooleanModel:
		current, _ := typed.Value()
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current, Help: help(c)})
		if err != nil {
			return err
		}
		typed.SetValue(answer)
		return nil
	case *model.EnumModel:
		return s.editEnum(ctx, c, typed, label)
	case *model.NumberModel:
		return s.editParsed(ctx, c, label, func(text string) error {
			value, err := strconv.ParseFloat(text, 64)
			if err == nil {
				typed.SetValue(value)
			}
			return err
		})
	case *model.IntegerModel:
		return s.editParsed(ctx, c, label, func(text string) error {
			value, err := strconv.ParseInt(text, 10, 64)
			if err == nil {
				typed.SetValue(value)
			}
			return err
		})
	case *model.FormattedIntegerModel:
		return s.editFormatted(ctx, c, typed, label)
	case *model.UnsupportedModel:
		return s.driver.Info(ctx, fmt.Sprintf("%s: unsupported schema, keeping %s", label, typed.PreviewString()))
	case textModel:
		return s.editText(ctx, c, typed, label)
	default:
		return s.driver.Info(ctx, fmt.Sprintf("%s: %s", label, m.PreviewString()))
	}
}

// textModel is satisfied by every model storing a plain string.
type textModel interface {
	model.Model
	Value() (string, bool)
	SetValue(string)
	Clear()
}

func (s *Session) editText(ctx context.Context, c *control.Control, m textModel, label string) error {
	current, _ := m.Value()
	if m.Kind() == model.KindMultiLine {
		answer, err := s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current, Help: help(c)})
		if err != nil {
			return err
		}
		s.commitText(c, m, answer)
		return nil
	}
	cfg := InputConfig{Message: label, Default: current, Help: help(c)}
	if ref, ok := m.(*model.ReferenceModel); ok {
		cfg.Suggest = ref.Proposals
	}
	answer, err := s.driver.Input(ctx, cfg)
	if err != nil {
		return err
	}
	s.commitText(c, m, answer)
	return nil
}

func (s *Session) commitText(c *control.Control, m textModel, answer string) {
	if answer == "" && !c.Schema().Required() {
		m.Clear()
		return
	}
	m.SetValue(answer)
}

func (s *Session) editParsed(ctx context.Context, c *control.Control, label string, commit func(string) error) error {
	current := ""
	if raw := c.Model().RawValue(); raw != nil {
		current = fmt.Sprint(raw)
	}
	answer, err := s.driver.Input(ctx, InputConfig{
		Message: label,
		Default: current,
		Help:    help(c),
		Validator: func(text string) error {
			if strings.TrimSpace(text) == "" {
				return nil
			}
			_, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			return err
		},
	})
	if err != nil {
		return err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		if !c.Schema().Required() {
			c.Model().SetRawValue(nil)
		}
		return nil
	}
	if err := commit(answer); err != nil {
		return s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", label, err))
	}
	return nil
}

func (s *Session) editFormatted(ctx context.Context, c *control.Control, m *model.FormattedIntegerModel, label string) error {
	answer, err := s.driver.Input(ctx, InputConfig{
		Message: label,
		Default: m.Display(),
		Help:    help(c),
		Validator: func(text string) error {
			_, err := m.Parse(text)
			return err
		},
	})
	if err != nil {
		return err
	}
	if err := m.SetText(answer); err != nil {
		return s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", label, err))
	}
	return nil
}

func (s *Session) editEnum(ctx context.Context, c *control.Control, m *model.EnumModel, label string) error {
	options := m.Options()
	names := make([]string, len(options))
	for idx, option := range options {
		names[idx] = fmt.Sprint(option)
	}
	answer, err := s.driver.Select(ctx, SelectConfig{Message: label, Options: names, DefaultIndex: m.Selected(), Help: help(c)})
	if err != nil {
		return err
	}
	m.Select(answer)
	return nil
}

func (s *Session) editEnumSet(ctx context.Context, m *model.EnumSetModel, label string) error {
	options := m.Options()
	names := make([]string, len(options))
	var selected []int
	for idx, option := range options {
		names[idx] = fmt.Sprint(option)
		if m.Contains(idx) {
			selected = append(selected, idx)
		}
	}
	answer, err := s.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: names, Defaults: selected})
	if err != nil {
		return err
	}
	want := make(map[int]bool, len(answer))
	for _, idx := range answer {
		want[idx] = true
	}
	for idx := range options {
		if m.Contains(idx) != want[idx] {
			m.Toggle(idx)
		}
	}
	return nil
}

func (s *Session) editObject(ctx context.Context, c *control.Control, m *model.ObjectModel, label string) error {
	if _, ok := m.Value(); !ok {
		if c.Schema().ReadOnly() {
			return nil
		}
		if !c.Schema().Required() && c.Schema().Parent() != nil {
			create, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Fill in " + label + "?"})
			if err != nil {
				return err
			}
			if !create {
				return nil
			}
		}
		m.Ensure()
	}
	return s.editChildren(ctx, c)
}

func (s *Session) editArray(ctx context.Context, c *control.Control, m *model.ArrayModel, label string) error {
	if err := s.editChildren(ctx, c); err != nil {
		return err
	}
	if c.Schema().ReadOnly() {
		return nil
	}
	for {
		add, err := s.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add an item to %s?", label)})
		if err != nil {
			return err
		}
		if !add {
			return nil
		}
		m.AddItemAt(m.Len())
		children := c.Children()
		if len(children) == 0 {
			return nil
		}
		if err := s.edit(ctx, children[len(children)-1]); err != nil {
			return err
		}
	}
}

func (s *Session) editOneOf(ctx context.Context, c *control.Control, m *model.OneOfModel, label string) error {
	if !c.Schema().ReadOnly() {
		branches := m.Branches()
		names := make([]string, len(branches))
		for idx, branch := range branches {
			names[idx] = effective.BranchTitle(branch.Base(), idx)
		}
		answer, err := s.driver.Select(ctx, SelectConfig{Message: label, Options: names, DefaultIndex: m.Active(), Help: help(c)})
		if err != nil {
			return err
		}
		if answer != m.Active() {
			m.SelectType(answer)
		}
	}
	if branch := c.ActiveBranch(); branch != nil {
		return s.edit(ctx, branch)
	}
	return nil
}

// editChildren walks the children exposed after each edit since commits
// rebind the tree.
func (s *Session) editChildren(ctx context.Context, c *control.Control) error {
	for idx := 0; idx < len(c.Children()); idx++ {
		if err := s.edit(ctx, c.Children()[idx]); err != nil {
			return err
		}
	}
	return nil
}

func help(c *control.Control) string {
	parts := []string{}
	if desc := c.Schema().Description(); desc != "" {
		parts = append(parts, desc)
	}
	parts = append(parts, c.Model().ValidationErrors()...)
	return strings.Join(parts, "\n")
}
