package terminal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propedit/pkg/editor"
	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
)

// scriptedDriver answers prompts by message. Unscripted prompts keep their
// default.
type scriptedDriver struct {
	inputs   map[string][]string
	confirms map[string][]bool
	selects  map[string][]int
	multi    map[string][]int
	asked    []string
	infos    []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if queue := d.inputs[cfg.Message]; len(queue) > 0 {
		d.inputs[cfg.Message] = queue[1:]
		if cfg.Validator != nil {
			if err := cfg.Validator(queue[0]); err != nil {
				return "", err
			}
		}
		return queue[0], nil
	}
	return cfg.Default, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	if queue := d.confirms[cfg.Message]; len(queue) > 0 {
		d.confirms[cfg.Message] = queue[1:]
		return queue[0], nil
	}
	return cfg.Default, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	if queue := d.selects[cfg.Message]; len(queue) > 0 {
		d.selects[cfg.Message] = queue[1:]
		return queue[0], nil
	}
	return cfg.DefaultIndex, nil
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	d.asked = append(d.asked, cfg.Message)
	if answer, ok := d.multi[cfg.Message]; ok {
		return answer, nil
	}
	return cfg.Defaults, nil
}

func (d *scriptedDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if queue := d.inputs[cfg.Message]; len(queue) > 0 {
		d.inputs[cfg.Message] = queue[1:]
		return queue[0], nil
	}
	return cfg.Default, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func display(t *testing.T, rawSchema, rawData string) *editor.Element {
	t.Helper()
	node, err := pkgjsonschema.ParseSchema([]byte(rawSchema))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	data, err := pkgjsonschema.ParseJSON([]byte(rawData))
	if err != nil {
		t.Fatalf("parse data: %v", err)
	}
	el, err := editor.New().Display(context.Background(), "main", node, data)
	if err != nil {
		t.Fatalf("display: %v", err)
	}
	return el
}

func TestSessionEditsEveryKind(t *testing.T) {
	el := display(t, `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "title": "Name", "minLength": 1},
    "age": {"type": "integer", "title": "Age"},
    "active": {"type": "boolean", "title": "Active"},
    "level": {"enum": ["junior", "mid", "senior"], "title": "Level"},
    "perks": {"type": "array", "title": "Perks", "uniqueItems": true, "items": {"enum": ["car", "gym", "lunch"]}},
    "tags": {"type": "array", "title": "Tags", "items": {"type": "string", "title": "Tag"}},
    "notes": {"type": "string", "title": "Notes"}
  }
}`, `{"notes": "old"}`)

	driver := &scriptedDriver{
		inputs: map[string][]string{
			"Name":  {"Ada"},
			"Age":   {"36"},
			"Tag":   {"x"},
			"Notes": {""},
		},
		confirms: map[string][]bool{
			"Active":               {true},
			"Add an item to Tags?": {true, false},
		},
		selects: map[string][]int{"Level": {1}},
		multi:   map[string][]int{"Perks": {0, 2}},
	}
	session := NewSession(WithPromptDriver(driver))
	if err := session.Edit(context.Background(), el.Control()); err != nil {
		t.Fatalf("edit: %v", err)
	}

	want := map[string]any{
		"name":   "Ada",
		"age":    float64(36),
		"active": true,
		"level":  "mid",
		"perks":  []any{"car", "lunch"},
		"tags":   []any{"x"},
	}
	if diff := cmp.Diff(want, el.Data()); diff != "" {
		t.Fatalf("unexpected data (-want +got):\n%s", diff)
	}
	if !el.Valid() {
		t.Fatalf("expected valid element, got %#v", el.Issues())
	}
}

func TestSessionSwitchesUnionBranch(t *testing.T) {
	el := display(t, `{
  "oneOf": [
    {"type": "object", "title": "Circle", "required": ["kind", "r"], "properties": {"kind": {"const": "circle"}, "r": {"type": "number", "title": "Radius"}}},
    {"type": "object", "title": "Square", "required": ["kind", "side"], "properties": {"kind": {"const": "square"}, "side": {"type": "number", "title": "Side"}}}
  ]
}`, `{"kind": "circle", "r": 1}`)

	driver := &scriptedDriver{
		inputs:  map[string][]string{"Side": {"2.5"}},
		selects: map[string][]int{"": {1}},
	}
	if err := NewSession(WithPromptDriver(driver)).Edit(context.Background(), el.Control()); err != nil {
		t.Fatalf("edit: %v", err)
	}

	want := map[string]any{"kind": "square", "side": 2.5}
	if diff := cmp.Diff(want, el.Data()); diff != "" {
		t.Fatalf("unexpected data (-want +got):\n%s", diff)
	}
	if len(driver.infos) == 0 {
		t.Fatalf("expected read-only discriminator to be reported")
	}
}

func TestSessionSkipsOptionalObject(t *testing.T) {
	el := display(t, `{
  "type": "object",
  "properties": {
    "address": {"type": "object", "title": "Address", "properties": {"city": {"type": "string", "title": "City"}}}
  }
}`, `{}`)

	driver := &scriptedDriver{confirms: map[string][]bool{"Fill in Address?": {false}}}
	if err := NewSession(WithPromptDriver(driver)).Edit(context.Background(), el.Control()); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if diff := cmp.Diff(map[string]any{}, el.Data()); diff != "" {
		t.Fatalf("unexpected data (-want +got):\n%s", diff)
	}
	for _, message := range driver.asked {
		if message == "City" {
			t.Fatalf("did not expect a prompt for a skipped object")
		}
	}
}

func TestSessionReportsIssues(t *testing.T) {
	el := display(t, `{
  "type": "object",
  "properties": {"name": {"type": "string", "minLength": 3}}
}`, `{"name": "ab"}`)

	driver := &scriptedDriver{}
	if err := NewSession(WithPromptDriver(driver)).Report(context.Background(), el.Control()); err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(driver.infos) != 2 {
		t.Fatalf("expected messages for the field and its parent, got %#v", driver.infos)
	}
	if driver.infos[1] != "/: 1 sub-error(s)" {
		t.Fatalf("unexpected root message %q", driver.infos[1])
	}
}

type abortingDriver struct{ scriptedDriver }

func (abortingDriver) Input(context.Context, InputConfig) (string, error) { return "", ErrAborted }

func TestSessionPropagatesAbort(t *testing.T) {
	el := display(t, `{"type": "object", "properties": {"name": {"type": "string"}}}`, `{}`)
	err := NewSession(WithPromptDriver(&abortingDriver{})).Edit(context.Background(), el.Control())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestSessionRequiresTree(t *testing.T) {
	if err := NewSession(WithPromptDriver(&scriptedDriver{})).Edit(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil tree")
	}
}
