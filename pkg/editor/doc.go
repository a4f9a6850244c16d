// Package editor hosts editing sessions: each displayed element pairs a
// normalized schema with a document, keeps its control tree bound to the
// document and revalidates after every change. The editor is single
// threaded; callers serialize access.
package editor
