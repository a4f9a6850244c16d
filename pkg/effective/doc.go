// Package effective derives the context-aware view of each schema node used
// when binding data: resolved title, read-only flag, required flag, the JSON
// pointer of the value the node edits and the display order of properties.
//
// A view is one of a closed set of variants (Regular, InArray, FromReference,
// OfCombination) optionally wrapped by decorators (ForceReadOnly, Nullable,
// Partial). Parent links are non-owning and only used for lookups.
package effective
