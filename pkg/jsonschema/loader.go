package jsonschema

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-propedit/pkg/schema"
)

// Source and Document are shared with pkg/schema so loaders serve both schema
// and data documents.
type (
	Source     = schema.Source
	SourceKind = schema.SourceKind
	Document   = schema.Document
)

const (
	SourceKindFile = schema.SourceKindFile
	SourceKindFS   = schema.SourceKindFS
	SourceKindURL  = schema.SourceKindURL
)

var (
	SourceFromFile = schema.SourceFromFile
	SourceFromFS   = schema.SourceFromFS
	SourceFromURL  = schema.SourceFromURL
	NewDocument    = schema.NewDocument
)

// Loader retrieves referenced schema documents.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configures how a Loader resolves sources.
type LoaderOptions struct {
	// FileSystem enables loading fs sources.
	FileSystem fs.FS

	// HTTPClient allows callers to inject custom HTTP behaviour (timeouts,
	// proxies). Nil means HTTP sources are disabled unless AllowHTTPFallback is
	// true.
	HTTPClient *http.Client

	// AllowHTTPFallback toggles a default HTTP client when no client is
	// supplied.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetch durations. Zero means no timeout: a hung
	// remote schema blocks the caller.
	RequestTimeout time.Duration

	// MaxRedirects caps Location redirects followed per fetch. Zero uses the
	// net/http default of 10.
	MaxRedirects int
}
