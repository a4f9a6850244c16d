// Package openapi turns OpenAPI 3 component schemas into JSON Schema roots
// the editor can normalize and display. kin-openapi handles parsing so YAML
// and JSON documents are both accepted.
package openapi
