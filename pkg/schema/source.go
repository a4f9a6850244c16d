package schema

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

// SourceKind tells loaders how to fetch a Source.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source names the origin of a schema or data document.
type Source interface {
	Kind() SourceKind
	Location() string
}

type source struct {
	kind     SourceKind
	location string
}

func (s source) Kind() SourceKind { return s.kind }
func (s source) Location() string { return s.location }

// SourceFromFile returns a file source for the cleaned path.
func SourceFromFile(path string) Source {
	return source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS returns a source naming an entry of the loader file system.
func SourceFromFS(name string) Source {
	return source{kind: SourceKindFS, location: name}
}

// SourceFromURL returns a URL source. It panics on malformed input.
func SourceFromURL(raw string) Source {
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("schema: invalid URL %q: %v", raw, err))
	}
	return source{kind: SourceKindURL, location: raw}
}

// Document is a fetched payload together with the source it came from. For
// URL sources the source is the final location after redirects.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw into a Document.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, fmt.Errorf("schema: %s is empty", src.Location())
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

func (d Document) Size() int { return len(d.raw) }

// Location returns the source location, or "" for a zero Document.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}
