package validation

import (
	"context"
	"testing"
)

func TestValidateSchema_Valid(t *testing.T) {
	raw := []byte(`{
  "type": "object",
  "definitions": {"name": {"type": "string"}},
  "properties": {
    "title": { "$ref": "#/definitions/name" },
    "tags": { "type": "array", "items": { "type": "string" } }
  }
}`)
	result := ValidateSchema(context.Background(), raw, SchemaValidationOptions{})
	if !result.Valid {
		t.Fatalf("expected schema to be valid: %#v", result.Issues)
	}
}

func TestValidateSchema_FieldPath(t *testing.T) {
	raw := []byte(`{
  "type": "object",
  "properties": {
    "title": { "type": "string", "minLength": "oops" }
  }
}`)
	result := ValidateSchema(context.Background(), raw, SchemaValidationOptions{})
	if result.Valid {
		t.Fatalf("expected schema to be invalid")
	}
	if len(result.Issues) == 0 {
		t.Fatalf("expected validation issues")
	}
	if got := result.Issues[0].Field; got != "title.minLength" {
		t.Fatalf("expected field path title.minLength, got %q", got)
	}
	if got := result.Issues[0].Path; got != "/properties/title/minLength" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestValidateSchema_MetaSchemaViolationsAreFlattened(t *testing.T) {
	raw := []byte(`{"type":"object","required":"name","properties":{"name":{"type":"string","maxLength":-1}}}`)
	result := ValidateSchema(context.Background(), raw, SchemaValidationOptions{})
	if result.Valid {
		t.Fatalf("expected schema to be invalid")
	}
	paths := map[string]bool{}
	for _, issue := range result.Issues {
		if issue.Message == "" {
			t.Fatalf("expected a message for %q", issue.Path)
		}
		paths[issue.Path] = true
	}
	for _, want := range []string{"/required", "/properties/name/maxLength"} {
		if !paths[want] {
			t.Fatalf("expected an issue at %q, got %#v", want, result.Issues)
		}
	}
}

func TestValidateSchema_UnresolvedRef(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"a":{"$ref":"#/definitions/missing"}}}`)
	result := ValidateSchema(context.Background(), raw, SchemaValidationOptions{})
	if result.Valid {
		t.Fatalf("expected schema to be invalid")
	}
	if got := result.Issues[0].Ref; got != "#/definitions/missing" {
		t.Fatalf("expected failing ref in issue, got %#v", result.Issues[0])
	}
}

func TestValidateSchema_ArrayWithoutItems(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"list":{"type":"array"}}}`)
	result := ValidateSchema(context.Background(), raw, SchemaValidationOptions{})
	if result.Valid {
		t.Fatalf("expected schema to be invalid")
	}
	issue := result.Issues[0]
	if issue.Path != "/list" || issue.Field != "list" {
		t.Fatalf("expected issue located at the array, got %#v", issue)
	}
}

func TestFieldPathFromPointer(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"/properties/a/items/properties/b": "a.items.b",
		"#/definitions/x/properties/y":     "y",
		"/oneOf/1/properties/c":            "c",
		"/properties/a~1b":                 "a/b",
	}
	for pointer, want := range cases {
		if got := fieldPathFromPointer(pointer); got != want {
			t.Fatalf("fieldPathFromPointer(%q) = %q, want %q", pointer, got, want)
		}
	}
}
