// Package model holds the typed models bound to effective schema nodes. A
// model converts between the JSON value stored in its binding and a typed Go
// value, carries the validation messages attached to its location and
// renders a short preview. Models are created once per control and are
// re-pointed at new bindings when the document changes.
package model
