package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"go.uber.org/zap"

	"github.com/goliatone/go-propedit/pkg/schema"
)

const (
	defaultMaxDocumentBytes = int64(5 << 20)
	defaultMaxDocuments     = 128
	defaultMaxRefDepth      = 64
)

// RefAnnotation is the key left on a resolved node holding the original $ref
// string. Downstream layers use it to present referenced schemas.
const RefAnnotation = "x-ref"

// ResolveOptions configures JSON Schema ref resolution.
type ResolveOptions struct {
	// AllowHTTPRefs toggles HTTP/HTTPS ref resolution.
	AllowHTTPRefs bool
	// MaxDocumentBytes caps the size of any single referenced document.
	MaxDocumentBytes int64
	// MaxDocuments caps the number of unique documents loaded during resolution.
	MaxDocuments int
	// MaxRefDepth caps the depth of $ref resolution chains.
	MaxRefDepth int
	// Logger receives debug output for remote fetches.
	Logger *zap.Logger
}

// Resolver replaces $ref nodes with their targets.
type Resolver struct {
	loader Loader
	opts   ResolveOptions
	logger *zap.Logger
}

type resolveSession struct {
	loader Loader
	opts   ResolveOptions
	logger *zap.Logger
	cache  map[string]*resolvedDocument
}

type resolvedDocument struct {
	key     string
	base    *url.URL
	data    any
	anchors map[string]string
}

// NewResolver constructs a resolver with the supplied loader and options. The
// loader may be nil when only local references are expected.
func NewResolver(loader Loader, opts ResolveOptions) *Resolver {
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = defaultMaxDocuments
	}
	if opts.MaxRefDepth <= 0 {
		opts.MaxRefDepth = defaultMaxRefDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{loader: loader, opts: opts, logger: logger}
}

// ResolveRefs returns a copy of root with every $ref replaced by its target.
// Local references resolve against root; relative remote references resolve
// against scope when given. Subtrees without references are shared with the
// input rather than copied.
func (r *Resolver) ResolveRefs(ctx context.Context, root map[string]any, scope *url.URL) (map[string]any, error) {
	if r == nil {
		return nil, errors.New("jsonschema resolver: resolver is nil")
	}
	if root == nil {
		return nil, errors.New("jsonschema resolver: schema is nil")
	}

	session := &resolveSession{
		loader: r.loader,
		opts:   r.opts,
		logger: r.logger,
		cache:  make(map[string]*resolvedDocument),
	}

	rootDoc, err := session.prepareRoot(root, scope)
	if err != nil {
		return nil, err
	}

	state := &resolveState{stack: make([]string, 0, 4), inStack: make(map[string]struct{})}
	resolved, _, err := session.resolveNode(ctx, rootDoc, root, state)
	if err != nil {
		return nil, err
	}

	output, ok := resolved.(map[string]any)
	if !ok {
		return nil, errors.New("jsonschema resolver: resolved root is not an object")
	}
	return output, nil
}

// Normalize resolves references and then inlines allOf compositions.
func (r *Resolver) Normalize(ctx context.Context, root map[string]any, scope *url.URL) (map[string]any, error) {
	resolved, err := r.ResolveRefs(ctx, root, scope)
	if err != nil {
		return nil, err
	}
	return InlineCompositions(resolved), nil
}

func (s *resolveSession) prepareRoot(root map[string]any, scope *url.URL) (*resolvedDocument, error) {
	anchors := make(map[string]string)
	if err := indexAnchors(root, "", anchors); err != nil {
		return nil, err
	}
	key := "root:"
	if scope != nil {
		key = scope.String()
	}
	doc := &resolvedDocument{key: key, base: scope, data: root, anchors: anchors}
	s.cache[key] = doc
	return doc, nil
}

// skipKeys hold instance data or annotations rather than subschemas.
var skipKeys = map[string]struct{}{
	"enum":     {},
	"const":    {},
	"default":  {},
	"examples": {},
}

func (s *resolveSession) resolveNode(ctx context.Context, doc *resolvedDocument, node any, state *resolveState) (any, bool, error) {
	switch typed := node.(type) {
	case map[string]any:
		if raw, ok := typed["$ref"]; ok {
			ref, ok := raw.(string)
			if !ok {
				return nil, false, fmt.Errorf("jsonschema resolver: $ref must be a string, got %T", raw)
			}
			return s.resolveRef(ctx, doc, typed, strings.TrimSpace(ref), state)
		}

		var out map[string]any
		for _, key := range schema.SortedKeys(typed) {
			if _, skip := skipKeys[key]; skip || isVendorExtension(key) {
				continue
			}
			resolved, changed, err := s.resolveNode(ctx, doc, typed[key], state)
			if err != nil {
				return nil, false, err
			}
			if !changed {
				continue
			}
			if out == nil {
				out = shallowCopy(typed)
			}
			out[key] = resolved
		}
		if out == nil {
			return typed, false, nil
		}
		return out, true, nil
	case []any:
		var out []any
		for idx, entry := range typed {
			resolved, changed, err := s.resolveNode(ctx, doc, entry, state)
			if err != nil {
				return nil, false, err
			}
			if !changed {
				continue
			}
			if out == nil {
				out = append([]any(nil), typed...)
			}
			out[idx] = resolved
		}
		if out == nil {
			return typed, false, nil
		}
		return out, true, nil
	default:
		return node, false, nil
	}
}

func (s *resolveSession) resolveRef(ctx context.Context, doc *resolvedDocument, node map[string]any, ref string, state *resolveState) (any, bool, error) {
	refKey, targetDoc, target, err := s.resolveRefTarget(ctx, doc, ref)
	if err != nil {
		return nil, false, err
	}
	if len(state.stack) >= s.opts.MaxRefDepth {
		return nil, false, fmt.Errorf("jsonschema resolver: ref depth exceeds %d", s.opts.MaxRefDepth)
	}
	if state.contains(refKey) {
		return nil, false, &RefError{Ref: ref, Err: ErrRefCycle}
	}

	state.push(refKey)
	resolvedTarget, _, err := s.resolveNode(ctx, targetDoc, target, state)
	state.pop(refKey)
	if err != nil {
		return nil, false, err
	}

	merged := make(map[string]any, len(node))
	for key, value := range node {
		if key == "$ref" {
			continue
		}
		merged[key] = value
	}

	switch typed := resolvedTarget.(type) {
	case map[string]any:
		for key, value := range typed {
			if _, exists := merged[key]; exists {
				continue
			}
			merged[key] = value
		}
	default:
		if len(merged) == 0 {
			return resolvedTarget, true, nil
		}
		return nil, false, &RefError{Ref: ref, Err: fmt.Errorf("target is %T, not an object", resolvedTarget)}
	}
	merged[RefAnnotation] = ref

	// Sibling keywords of the referencing node may hold references of their own.
	out, _, err := s.resolveNode(ctx, doc, merged, state)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *resolveSession) resolveRefTarget(ctx context.Context, doc *resolvedDocument, ref string) (string, *resolvedDocument, any, error) {
	refPath, fragment := splitRef(ref)
	target := doc
	if refPath != "" {
		loaded, err := s.loadRemote(ctx, doc, ref, refPath)
		if err != nil {
			return "", nil, nil, err
		}
		target = loaded
	}
	resolved, err := s.resolveFragment(target, ref, fragment)
	if err != nil {
		return "", nil, nil, err
	}
	return target.key + "#" + fragment, target, resolved, nil
}

func (s *resolveSession) resolveFragment(doc *resolvedDocument, ref, fragment string) (any, error) {
	if fragment == "" {
		return doc.data, nil
	}
	if !strings.HasPrefix(fragment, "/") {
		if strings.Contains(fragment, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPointer, fragment)
		}
		pointer, ok := doc.anchors[fragment]
		if !ok {
			return nil, &RefError{Ref: ref, Err: fmt.Errorf("%w: anchor %q", ErrRefNotFound, fragment)}
		}
		fragment = pointer
		if fragment == "" {
			return doc.data, nil
		}
	}
	return lookupPointer(doc.data, ref, fragment)
}

func lookupPointer(data any, ref, fragment string) (any, error) {
	decoded, err := url.PathUnescape(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPointer, fragment, err)
	}
	pointer, err := jsonpointer.New(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPointer, fragment, err)
	}
	value, _, err := pointer.Get(data)
	if err != nil {
		return nil, &RefError{Ref: ref, Err: fmt.Errorf("%w: %v", ErrRefNotFound, err)}
	}
	return value, nil
}

func (s *resolveSession) loadRemote(ctx context.Context, doc *resolvedDocument, ref, refPath string) (*resolvedDocument, error) {
	parsed, err := url.Parse(refPath)
	if err != nil {
		return nil, &RefError{Ref: ref, Err: err}
	}
	if !parsed.IsAbs() {
		if doc.base == nil {
			return nil, &RefError{Ref: ref, Err: errors.New("relative reference without resolution scope")}
		}
		parsed = doc.base.ResolveReference(parsed)
	}

	var src Source
	switch parsed.Scheme {
	case "http", "https":
		if !s.opts.AllowHTTPRefs {
			return nil, &RefError{Ref: ref, Location: parsed.String(), Err: errors.New("http refs disabled")}
		}
		src = SourceFromURL(parsed.String())
	case "file":
		src = SourceFromFile(parsed.Path)
	default:
		return nil, &RefError{Ref: ref, Err: fmt.Errorf("unsupported ref scheme %q", parsed.Scheme)}
	}

	key := parsed.String()
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}
	if len(s.cache) >= s.opts.MaxDocuments {
		return nil, fmt.Errorf("jsonschema resolver: exceeded max documents (%d)", s.opts.MaxDocuments)
	}
	if s.loader == nil {
		return nil, &RefError{Ref: ref, Location: key, Err: errors.New("loader is nil")}
	}

	s.logger.Debug("fetching referenced schema", zap.String("ref", ref), zap.String("location", key))
	loaded, err := s.loader.Load(ctx, src)
	if err != nil {
		return nil, &RefError{Ref: ref, Location: key, Err: err}
	}
	if int64(loaded.Size()) > s.opts.MaxDocumentBytes {
		return nil, &RefError{Ref: ref, Location: key, Err: fmt.Errorf("document too large (%d bytes)", loaded.Size())}
	}
	payload, err := ParseJSON(loaded.Raw())
	if err != nil {
		return nil, &RefError{Ref: ref, Location: key, Err: err}
	}
	anchors := make(map[string]string)
	if err := indexAnchors(payload, "", anchors); err != nil {
		return nil, err
	}

	base := documentBase(loaded, parsed)
	resolved := &resolvedDocument{key: base.String(), base: base, data: payload, anchors: anchors}
	s.cache[key] = resolved
	s.cache[resolved.key] = resolved
	return resolved, nil
}

// documentBase prefers the location reported by the loader, which reflects
// redirects, over the requested URL.
func documentBase(doc Document, requested *url.URL) *url.URL {
	location := doc.Location()
	if location == "" {
		return stripFragment(requested)
	}
	if doc.Source() != nil && doc.Source().Kind() == SourceKindFile {
		abs, err := filepath.Abs(location)
		if err != nil {
			return stripFragment(requested)
		}
		return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	}
	parsed, err := url.Parse(location)
	if err != nil || !parsed.IsAbs() {
		return stripFragment(requested)
	}
	return stripFragment(parsed)
}

func stripFragment(u *url.URL) *url.URL {
	clone := *u
	clone.Fragment = ""
	clone.RawFragment = ""
	return &clone
}

func splitRef(ref string) (string, string) {
	parts := strings.SplitN(ref, "#", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func indexAnchors(node any, pointer string, anchors map[string]string) error {
	switch typed := node.(type) {
	case map[string]any:
		if name := schema.String(typed, "$anchor"); name != "" {
			if _, exists := anchors[name]; exists {
				return fmt.Errorf("jsonschema resolver: duplicate anchor %q", name)
			}
			anchors[name] = pointer
		}
		for key, value := range typed {
			if _, skip := skipKeys[key]; skip || isVendorExtension(key) {
				continue
			}
			if err := indexAnchors(value, pointer+"/"+jsonpointer.Escape(key), anchors); err != nil {
				return err
			}
		}
	case []any:
		for idx, value := range typed {
			if err := indexAnchors(value, pointer+"/"+strconv.Itoa(idx), anchors); err != nil {
				return err
			}
		}
	}
	return nil
}

func isVendorExtension(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "x-")
}

func shallowCopy(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

type resolveState struct {
	stack   []string
	inStack map[string]struct{}
}

func (s *resolveState) push(ref string) {
	s.stack = append(s.stack, ref)
	if s.inStack == nil {
		s.inStack = make(map[string]struct{})
	}
	s.inStack[ref] = struct{}{}
}

func (s *resolveState) pop(ref string) {
	if len(s.stack) == 0 {
		return
	}
	last := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.inStack, last)
	if ref != last {
		delete(s.inStack, ref)
	}
}

func (s *resolveState) contains(ref string) bool {
	_, ok := s.inStack[ref]
	return ok
}
