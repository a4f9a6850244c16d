// Package loader fetches schema documents referenced during normalization
// from disk, an fs.FS or HTTP.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
)

// Loader is the default pkgjsonschema.Loader.
type Loader struct {
	files   fs.FS
	client  *http.Client
	timeout time.Duration
}

var _ pkgjsonschema.Loader = (*Loader)(nil)

// New builds a Loader. HTTP sources are only served when options carry a
// client or enable the fallback client.
func New(options pkgjsonschema.LoaderOptions) *Loader {
	return &Loader{
		files:   options.FileSystem,
		client:  httpClient(options),
		timeout: options.RequestTimeout,
	}
}

func httpClient(options pkgjsonschema.LoaderOptions) *http.Client {
	var client *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		client = &clone
	case options.AllowHTTPFallback:
		client = &http.Client{Timeout: options.RequestTimeout}
	default:
		return nil
	}
	if options.MaxRedirects > 0 && client.CheckRedirect == nil {
		client.CheckRedirect = redirectPolicy(options.MaxRedirects)
	}
	return client
}

// Load fetches src. Documents fetched over HTTP carry the final location
// after redirects as their source.
func (l *Loader) Load(ctx context.Context, src pkgjsonschema.Source) (pkgjsonschema.Document, error) {
	if src == nil {
		return pkgjsonschema.Document{}, errors.New("jsonschema loader: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case pkgjsonschema.SourceKindFile:
		data, err = readLocal(ctx, nil, src.Location())
	case pkgjsonschema.SourceKindFS:
		if l.files == nil {
			return pkgjsonschema.Document{}, errors.New("jsonschema loader: no file system configured")
		}
		data, err = readLocal(ctx, l.files, src.Location())
	case pkgjsonschema.SourceKindURL:
		if l.client == nil {
			return pkgjsonschema.Document{}, errors.New("jsonschema loader: http support disabled")
		}
		var final string
		data, final, err = loadHTTP(ctx, l.client, src.Location(), l.timeout)
		if err == nil {
			src = pkgjsonschema.SourceFromURL(final)
		}
	default:
		return pkgjsonschema.Document{}, fmt.Errorf("jsonschema loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return pkgjsonschema.Document{}, err
	}
	return pkgjsonschema.NewDocument(src, data)
}
