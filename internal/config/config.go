// Package config loads and validates MKViewer configuration.
//
// Configuration is resolved in three layers, later layers winning:
//  1. Built-in defaults (NewConfig)
//  2. YAML file (mkviewer.yaml)
//  3. Environment variables (MKVIEWER_*)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "mkviewer.yaml"

// Config is the complete MKViewer configuration.
type Config struct {
	SiteTitle string       `yaml:"site_title"`
	Store     StoreConfig  `yaml:"store"`
	Index     IndexConfig  `yaml:"index"`
	Cache     CacheConfig  `yaml:"cache"`
	Render    RenderConfig `yaml:"render"`
	Search    SearchConfig `yaml:"search"`
	Server    ServerConfig `yaml:"server"`
	Logging   LogConfig    `yaml:"logging"`
}

// StoreConfig configures the object-store client.
type StoreConfig struct {
	// Endpoints are tried in order until one answers (empty entry = default).
	Endpoints []string `yaml:"endpoints"`
	// Bucket is the bucket holding the documents.
	Bucket string `yaml:"bucket"`
	// Prefix scopes the catalog to keys under this path.
	Prefix string `yaml:"prefix"`
	// CredentialsFile points at a service-account JSON file. Empty uses
	// ambient credentials.
	CredentialsFile string `yaml:"credentials_file"`
	// Timeout bounds every store call.
	Timeout time.Duration `yaml:"timeout"`
	// PresignTTL is the lifetime of generated download links.
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// IndexConfig configures the search index.
type IndexConfig struct {
	// Path is the on-disk index location. Empty means in-memory.
	Path string `yaml:"path"`
	// Name identifies the index (kept in the lock file name).
	Name string `yaml:"name"`
	// Timeout bounds every index call.
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig configures the render cache.
type CacheConfig struct {
	// Capacity is the maximum number of rendered documents kept in memory.
	Capacity int `yaml:"capacity"`
}

// RenderConfig configures document rendering.
type RenderConfig struct {
	// PublicImageBase is the absolute URL prefix substituted for relative
	// image links in markdown documents.
	PublicImageBase string `yaml:"public_image_base"`
}

// SearchConfig configures query execution.
type SearchConfig struct {
	// MaxResults caps the number of hits returned per query.
	MaxResults int `yaml:"max_results"`
	// SnippetWidth is the number of context characters kept on each side of
	// a fallback snippet match.
	SnippetWidth int `yaml:"snippet_width"`
	// MaxFragments is the number of highlight fragments per hit.
	MaxFragments int `yaml:"max_fragments"`
}

// ServerConfig configures the HTTP server and background sync.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// SyncInterval is the period of the background reconciliation loop.
	// Zero disables it.
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		SiteTitle: "Document Knowledge Base",
		Store: StoreConfig{
			Bucket:     "bucket",
			Timeout:    10 * time.Second,
			PresignTTL: 6 * time.Hour,
		},
		Index: IndexConfig{
			Name:    "mkviewer-docs",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Capacity: 512,
		},
		Search: SearchConfig{
			MaxResults:   200,
			SnippetWidth: 60,
			MaxFragments: 3,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         7861,
			SyncInterval: 5 * time.Minute,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path (or DefaultFileName if path is empty),
// applies environment overrides, and validates the result. A missing default
// file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults + env only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies MKVIEWER_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MKVIEWER_SITE_TITLE"); v != "" {
		c.SiteTitle = v
	}
	if v := os.Getenv("MKVIEWER_STORE_ENDPOINTS"); v != "" {
		var eps []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				eps = append(eps, e)
			}
		}
		c.Store.Endpoints = eps
	}
	if v := os.Getenv("MKVIEWER_BUCKET"); v != "" {
		c.Store.Bucket = v
	}
	if v := os.Getenv("MKVIEWER_PREFIX"); v != "" {
		c.Store.Prefix = v
	}
	if v := os.Getenv("MKVIEWER_CREDENTIALS_FILE"); v != "" {
		c.Store.CredentialsFile = v
	}
	if v := os.Getenv("MKVIEWER_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("MKVIEWER_INDEX_NAME"); v != "" {
		c.Index.Name = v
	}
	if v := os.Getenv("MKVIEWER_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Capacity = n
		}
	}
	if v := os.Getenv("MKVIEWER_IMAGE_PUBLIC_BASE"); v != "" {
		c.Render.PublicImageBase = v
	}
	if v := os.Getenv("MKVIEWER_BIND_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("MKVIEWER_BIND_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("MKVIEWER_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Server.SyncInterval = d
		}
	}
	if v := os.Getenv("MKVIEWER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Store.Bucket == "" {
		return fmt.Errorf("store.bucket must not be empty")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}
	if c.Index.Timeout <= 0 {
		return fmt.Errorf("index.timeout must be positive")
	}
	return nil
}

// WriteYAML writes the configuration to path for `mkviewer init`-style flows.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
