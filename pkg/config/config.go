// Package config loads editor settings from JSON or YAML files.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/validation/script"
	"github.com/goliatone/go-propedit/pkg/validator"
)

// Config holds editor settings.
type Config struct {
	// Language selects validation message translations (BCP 47).
	Language string `json:"language" yaml:"language"`
	// Draft is the JSON Schema draft for schemas without $schema:
	// "4", "6", "7", "2019-09" or "2020-12".
	Draft    string         `json:"draft" yaml:"draft"`
	Resolver ResolverConfig `json:"resolver" yaml:"resolver"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Rules    []script.Rule  `json:"rules" yaml:"rules"`
}

// ResolverConfig bounds $ref resolution.
type ResolverConfig struct {
	AllowHTTPRefs    bool          `json:"allowHTTPRefs" yaml:"allowHTTPRefs"`
	MaxDocumentBytes int64         `json:"maxDocumentBytes" yaml:"maxDocumentBytes"`
	MaxDocuments     int           `json:"maxDocuments" yaml:"maxDocuments"`
	MaxRefDepth      int           `json:"maxRefDepth" yaml:"maxRefDepth"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	MaxRedirects     int           `json:"maxRedirects" yaml:"maxRedirects"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Language: "en",
		Draft:    "7",
		Resolver: ResolverConfig{
			Timeout:      10 * time.Second,
			MaxRedirects: 10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path from the operating system file system.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads name from fsys.
func LoadFS(fsys fs.FS, name string) (Config, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// Parse decodes JSON or YAML settings over Default and validates them.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: file %s is empty", source)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = Default()
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", source, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return cfg, nil
}

// Validate reports settings that cannot be applied.
func (c Config) Validate() error {
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("language %q: %w", c.Language, err)
	}
	if _, err := draft(c.Draft); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.levelName()); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Rules))
	for idx, rule := range c.Rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return fmt.Errorf("rule at index %d has no name", idx)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate rule %q", name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(rule.Script) == "" {
			return fmt.Errorf("rule %q has no script", name)
		}
	}
	return nil
}

// Logger builds the configured logger.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.levelName())
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// ValidatorOptions returns the validator settings.
func (c Config) ValidatorOptions(logger *zap.Logger) []validator.Option {
	opts := []validator.Option{validator.WithLogger(logger)}
	if tag, err := language.Parse(c.Language); err == nil {
		opts = append(opts, validator.WithLanguage(tag))
	}
	if d, err := draft(c.Draft); err == nil {
		opts = append(opts, validator.WithDraft(d))
	}
	return opts
}

// ResolveOptions returns the resolver settings.
func (c Config) ResolveOptions(logger *zap.Logger) pkgjsonschema.ResolveOptions {
	return pkgjsonschema.ResolveOptions{
		AllowHTTPRefs:    c.Resolver.AllowHTTPRefs,
		MaxDocumentBytes: c.Resolver.MaxDocumentBytes,
		MaxDocuments:     c.Resolver.MaxDocuments,
		MaxRefDepth:      c.Resolver.MaxRefDepth,
		Logger:           logger,
	}
}

// LoaderOptions returns the document loader settings.
func (c Config) LoaderOptions(fsys fs.FS) pkgjsonschema.LoaderOptions {
	return pkgjsonschema.LoaderOptions{
		FileSystem:        fsys,
		AllowHTTPFallback: c.Resolver.AllowHTTPRefs,
		RequestTimeout:    c.Resolver.Timeout,
		MaxRedirects:      c.Resolver.MaxRedirects,
	}
}

func (c Config) levelName() string {
	if c.Log.Level == "" {
		return "info"
	}
	return c.Log.Level
}

func draft(name string) (*jsonschema.Draft, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "draft") {
	case "", "7", "-07", "07":
		return jsonschema.Draft7, nil
	case "4", "-04", "04":
		return jsonschema.Draft4, nil
	case "6", "-06", "06":
		return jsonschema.Draft6, nil
	case "2019-09":
		return jsonschema.Draft2019, nil
	case "2020-12":
		return jsonschema.Draft2020, nil
	default:
		return nil, fmt.Errorf("unknown draft %q", name)
	}
}
