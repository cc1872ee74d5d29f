// Package config loads the facetcount CLI configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/facetcount/codec"
	"github.com/hupe1980/facetcount/facet"
	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/metadata"
)

// Config holds the facetcount CLI configuration.
type Config struct {
	Env      string         `yaml:"env"` // local, dev, prod
	Storage  StorageConfig  `yaml:"storage"`
	Segment  SegmentConfig  `yaml:"segment"`
	Searcher string         `yaml:"searcher"` // index, bluge, none
	Cache    CacheConfig    `yaml:"cache"`
	Resource ResourceConfig `yaml:"resource"`
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
	Request  RequestConfig  `yaml:"request"`
}

// StorageConfig selects the blob store holding the segments.
type StorageConfig struct {
	Kind      string `yaml:"kind"` // local, s3, minio
	Path      string `yaml:"path"` // local root directory
	Prefix    string `yaml:"prefix"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	PathStyle bool   `yaml:"path_style"`
}

// SegmentConfig controls how the build command writes segments.
type SegmentConfig struct {
	RowsPerSegment int    `yaml:"rows_per_segment"`
	Compression    string `yaml:"compression"` // none, lz4, zstd
	Codec          string `yaml:"codec"`       // go-json, json
}

// CacheConfig holds filter cache settings.
type CacheConfig struct {
	Disabled      bool  `yaml:"disabled"`
	CapacityBytes int64 `yaml:"capacity_bytes"`
}

// ResourceConfig bounds memory and load throughput.
type ResourceConfig struct {
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
	LoadWorkers        int64 `yaml:"load_workers"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds settings of the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// RequestConfig is the facet request the count and serve commands run.
type RequestConfig struct {
	Query   FilterConfig  `yaml:"query" json:"query"`
	Context FilterConfig  `yaml:"context" json:"context"`
	Types   []string      `yaml:"types" json:"types"`
	Facets  []FacetConfig `yaml:"facets" json:"facets"`
}

// FacetConfig describes one facet.
type FacetConfig struct {
	Name   string       `yaml:"name" json:"name"`
	Filter FilterConfig `yaml:"filter" json:"filter"`
	Pre    FilterConfig `yaml:"pre_filter" json:"pre_filter"`
}

// FilterConfig is either a CEL expression or a list of conditions that must all hold.
type FilterConfig struct {
	Expr  string      `yaml:"expr" json:"expr"`
	Where []Condition `yaml:"where" json:"where"`
}

// Condition is a single field comparison.
type Condition struct {
	Key   string `yaml:"key" json:"key"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value" json:"value"`
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = GetEnv()
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = "local"
	}
	if c.Storage.Kind == "local" && c.Storage.Path == "" {
		c.Storage.Path = "./data"
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = "segments"
	}
	if c.Segment.RowsPerSegment <= 0 {
		c.Segment.RowsPerSegment = 10000
	}
	if c.Segment.Compression == "" {
		c.Segment.Compression = "zstd"
	}
	if c.Segment.Codec == "" {
		c.Segment.Codec = codec.Default.Name()
	}
	if c.Searcher == "" {
		c.Searcher = "index"
	}
	if c.Resource.LoadWorkers <= 0 {
		c.Resource.LoadWorkers = 4
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":9090"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Env {
	case "local", "dev", "docker", "prod":
	default:
		return fmt.Errorf("env must be one of local, dev, docker, prod, got %q", c.Env)
	}

	switch c.Storage.Kind {
	case "local":
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for %s", c.Storage.Kind)
		}
		if c.Storage.Kind == "minio" && c.Storage.Endpoint == "" {
			return fmt.Errorf("storage.endpoint is required for minio")
		}
	default:
		return fmt.Errorf("storage.kind must be \"local\", \"s3\" or \"minio\", got %q", c.Storage.Kind)
	}

	switch c.Searcher {
	case "index", "bluge", "none":
	default:
		return fmt.Errorf("searcher must be \"index\", \"bluge\" or \"none\", got %q", c.Searcher)
	}

	if _, err := codec.ParseCompression(c.Segment.Compression); err != nil {
		return fmt.Errorf("segment.compression: %w", err)
	}
	if _, ok := codec.ByName(c.Segment.Codec); !ok {
		return fmt.Errorf("segment.codec: unknown codec %q", c.Segment.Codec)
	}

	return c.Request.Validate()
}

// Validate checks that every facet is named uniquely and every filter builds.
func (r RequestConfig) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(r.Facets))
	for i, f := range r.Facets {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("request.facets[%d].name is required", i))
		} else if seen[f.Name] {
			errs = append(errs, fmt.Errorf("request.facets[%d]: duplicate name %q", i, f.Name))
		}
		seen[f.Name] = true
		if f.Filter.Empty() {
			errs = append(errs, fmt.Errorf("request.facets[%d].filter is required", i))
		}
	}
	if _, err := r.Build(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Empty reports whether neither an expression nor conditions are set.
func (f FilterConfig) Empty() bool {
	return f.Expr == "" && len(f.Where) == 0
}

// Build returns the filter. An empty FilterConfig yields nil.
func (f FilterConfig) Build() (filter.Filter, error) {
	if f.Expr != "" && len(f.Where) > 0 {
		return nil, errors.New("expr and where are mutually exclusive")
	}
	if f.Expr != "" {
		return filter.NewExpr(f.Expr)
	}
	if len(f.Where) == 0 {
		return nil, nil
	}

	fs := metadata.NewFilterSet()
	for _, cond := range f.Where {
		op := metadata.Operator(cond.Op)
		if op == "" {
			op = metadata.OpEqual
		}
		if !op.Valid() {
			return nil, fmt.Errorf("%s: unknown operator %q", cond.Key, cond.Op)
		}
		v, err := metadata.FromAny(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cond.Key, err)
		}
		fs.Filters = append(fs.Filters, metadata.Filter{Key: cond.Key, Operator: op, Value: v})
	}
	return filter.FromFilterSet(fs), nil
}

// Request is the built form of RequestConfig.
type Request struct {
	Query   filter.Filter
	Context filter.Filter
	Types   []string
	Facets  []facet.Facet
}

// Build compiles every filter of the request.
func (r RequestConfig) Build() (Request, error) {
	q, err := r.Query.Build()
	if err != nil {
		return Request{}, fmt.Errorf("request.query: %w", err)
	}
	cf, err := r.Context.Build()
	if err != nil {
		return Request{}, fmt.Errorf("request.context: %w", err)
	}

	out := Request{Query: q, Context: cf, Types: r.Types}
	for i, fc := range r.Facets {
		f, err := fc.Filter.Build()
		if err != nil {
			return Request{}, fmt.Errorf("request.facets[%d].filter: %w", i, err)
		}
		pre, err := fc.Pre.Build()
		if err != nil {
			return Request{}, fmt.Errorf("request.facets[%d].pre_filter: %w", i, err)
		}
		out.Facets = append(out.Facets, facet.Facet{Name: fc.Name, Filter: f, PreFilter: pre})
	}
	return out, nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
