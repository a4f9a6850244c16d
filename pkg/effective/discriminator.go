package effective

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/schema"
)

// DetectDiscriminator returns the property that deterministically selects a
// branch: every branch must be an object with exactly one required property
// carrying a const, and that property must be the same across branches.
// It returns "" when the union is not discriminated.
func DetectDiscriminator(branches []schema.Node) string {
	if len(branches) == 0 {
		return ""
	}
	name := ""
	for _, branch := range branches {
		candidate, ok := branchDiscriminator(branch)
		if !ok {
			return ""
		}
		if name == "" {
			name = candidate
			continue
		}
		if candidate != name {
			return ""
		}
	}
	return name
}

func branchDiscriminator(branch schema.Node) (string, bool) {
	if !schema.IsObject(branch) {
		return "", false
	}
	props, _ := schema.Object(branch, "properties")
	required := schema.StringList(branch, "required")
	found := ""
	for _, name := range schema.SortedKeys(props) {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if _, hasConst := prop["const"]; !hasConst {
			continue
		}
		if found != "" {
			return "", false
		}
		found = name
	}
	if found == "" || !schema.Contains(required, found) {
		return "", false
	}
	return found, true
}

// DiscriminatorValue returns the const carried by the discriminator property
// of branch.
func DiscriminatorValue(branch schema.Node, discriminator string) (any, bool) {
	props, ok := schema.Object(branch, "properties")
	if !ok {
		return nil, false
	}
	prop, ok := props[discriminator].(map[string]any)
	if !ok {
		return nil, false
	}
	value, ok := prop["const"]
	return value, ok
}

// BranchTitle derives a display title for the composition branch at index.
func BranchTitle(branch schema.Node, index int) string {
	if title := schema.String(branch, "title"); title != "" {
		return title
	}
	if ref := schema.String(branch, jsonschema.RefAnnotation); ref != "" {
		if cut := strings.LastIndexAny(ref, "/#"); cut >= 0 && cut < len(ref)-1 {
			return ref[cut+1:]
		}
		return ref
	}
	if types := schema.Types(branch); len(types) > 0 {
		return strings.Join(types, "|")
	}
	return fmt.Sprintf("option %d", index+1)
}
