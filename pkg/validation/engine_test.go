package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propedit/pkg/bindable"
	"github.com/goliatone/go-propedit/pkg/control"
	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/model"
)

func bound(t *testing.T, rawSchema string, data any) *control.Control {
	t.Helper()
	node, err := jsonschema.ParseSchema([]byte(rawSchema))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	root, err := control.NewFactory().Create(effective.NewRoot(node))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := root.BindTo(bindable.NewRoot(data)); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return root
}

func pointers(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Pointer)
	}
	return out
}

func TestEngine_MinLength(t *testing.T) {
	data := map[string]any{"name": "abcdef"}
	root := bound(t, `{"type":"object","properties":{"name":{"type":"string","minLength":15}}}`, data)

	issues, err := NewEngine().Validate(root, "doc", data, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"/name", ""}, pointers(issues)); diff != "" {
		t.Fatalf("unexpected pointers (-want +got):\n%s", diff)
	}
	if issues[1].Message != "1 sub-error(s)" {
		t.Fatalf("unexpected root message %q", issues[1].Message)
	}
	name := control.Find(root, "/name")
	if got := name.Model().ValidationErrors(); len(got) != 1 || got[0] != issues[0].Message {
		t.Fatalf("expected model errors to carry the message, got %#v", got)
	}

	data["name"] = "abcdefghijklmnop"
	issues, err = NewEngine().Validate(root, "doc", data, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %#v", issues)
	}
	if got := name.Model().ValidationErrors(); len(got) != 0 {
		t.Fatalf("expected model errors cleared, got %#v", got)
	}
}

func TestEngine_RequiredLandsOnMissingChild(t *testing.T) {
	data := map[string]any{}
	root := bound(t, `{"type":"object","required":["a"],"properties":{"a":{"type":"string"}}}`, data)

	issues, err := NewEngine().Validate(root, "doc", data, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"/a", ""}, pointers(issues)); diff != "" {
		t.Fatalf("unexpected pointers (-want +got):\n%s", diff)
	}
	if !strings.Contains(issues[0].Message, "a") {
		t.Fatalf("expected message naming the property, got %q", issues[0].Message)
	}
}

func TestEngine_DefaultsFillGapsWithoutMutating(t *testing.T) {
	data := map[string]any{"inner": map[string]any{}}
	root := bound(t, `{
  "type":"object",
  "required":["a","inner"],
  "properties":{
    "a":{"type":"string","default":"x"},
    "inner":{"type":"object","required":["b"],"properties":{"b":{"type":"number","default":1}}}
  }
}`, data)

	issues, err := NewEngine().Validate(root, "doc", data, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected defaults to satisfy required, got %#v", issues)
	}
	if diff := cmp.Diff(map[string]any{"inner": map[string]any{}}, data); diff != "" {
		t.Fatalf("validation mutated data (-want +got):\n%s", diff)
	}
}

func TestEngine_SubErrorCounts(t *testing.T) {
	data := map[string]any{"inner": map[string]any{"x": "", "y": ""}}
	root := bound(t, `{
  "type":"object",
  "properties":{
    "inner":{"type":"object","properties":{
      "x":{"type":"string","minLength":1},
      "y":{"type":"string","minLength":1}
    }}
  }
}`, data)

	issues, err := NewEngine().Validate(root, "doc", data, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	byPointer := map[string]string{}
	for _, issue := range issues {
		byPointer[issue.Pointer] = issue.Message
	}
	if byPointer[""] != "2 sub-error(s)" || byPointer["/inner"] != "2 sub-error(s)" {
		t.Fatalf("unexpected aggregate messages: %#v", byPointer)
	}
	if byPointer["/inner/x"] == "" || byPointer["/inner/y"] == "" {
		t.Fatalf("expected leaf messages: %#v", byPointer)
	}
}

func TestEngine_CustomValidators(t *testing.T) {
	data := map[string]any{"name": "bob", "age": 3.0}
	root := bound(t, `{"type":"object","properties":{"name":{"type":"string"},"age":{"type":"number"}}}`, data)

	var seenID string
	upper := FuncValidator{
		Selector: func(m model.Model) bool { return m.Kind() == model.KindString },
		Check: func(m model.Model, id string) []Result {
			seenID = id
			value, _ := m.RawValue().(string)
			if value != strings.ToUpper(value) {
				return []Result{{Message: "must be upper case"}, {Message: "really"}}
			}
			return nil
		},
	}

	issues, err := NewEngine().Validate(root, "doc-7", data, []CustomValidator{upper})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := []Issue{{Pointer: "/name", Message: "must be upper case\nreally"}}
	if diff := cmp.Diff(want, issues); diff != "" {
		t.Fatalf("unexpected issues (-want +got):\n%s", diff)
	}
	if seenID != "doc-7" {
		t.Fatalf("expected object id passed to validator, got %q", seenID)
	}
}

func TestEngine_CustomValidatorPanicsPropagate(t *testing.T) {
	data := map[string]any{"name": "bob"}
	root := bound(t, `{"type":"object","properties":{"name":{"type":"string"}}}`, data)
	broken := FuncValidator{Check: func(model.Model, string) []Result { panic("broken rule") }}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic to propagate")
		}
	}()
	_, _ = NewEngine().Validate(root, "doc", data, []CustomValidator{broken})
}

func TestEngine_SharedPointerReportedOnce(t *testing.T) {
	data := map[string]any{"shape": map[string]any{"kind": "a", "n": "bad"}}
	root := bound(t, `{"type":"object","properties":{"shape":{"oneOf":[
  {"type":"object","required":["kind"],"properties":{"kind":{"const":"a"},"n":{"type":"number"}}},
  {"type":"object","required":["kind"],"properties":{"kind":{"const":"b"}}}
]}}}`, data)

	issues, err := NewEngine().Validate(root, "doc", data, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	count := 0
	for _, issue := range issues {
		if issue.Pointer == "/shape" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one issue for the union location, got %#v", issues)
	}
}

func TestEngine_DefaultedContainerKeepsChildrenUnset(t *testing.T) {
	data := map[string]any{}
	root := bound(t, `{
  "type": "object",
  "properties": {
    "opts": {
      "type": "object",
      "default": {},
      "properties": {"mode": {"type": "string", "default": "x", "minLength": 5}}
    }
  }
}`, data)
	if control.Find(root, "/opts/mode") != nil {
		t.Fatalf("children of an absent object must not be exposed")
	}

	issues, err := NewEngine().Validate(root, "doc", data, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no child default to be validated, got %#v", issues)
	}
	if _, ok := data["opts"]; ok {
		t.Fatalf("defaults must not leak into the live data")
	}
}
