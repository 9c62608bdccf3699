package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the product token sent with registry requests
	// (e.g. "pubsync/0.1"). Contact details are appended by the client.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RegistryConfig holds settings for the CrossRef registry client.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the works endpoint; the DOI is appended verbatim.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Site is the homepage advertised in the User-Agent for polite-pool attribution.
	Site string `json:"site" yaml:"site" mapstructure:"site"`

	// Mailto is the contact address advertised in the User-Agent.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// PlusToken is an optional Crossref Plus API token.
	PlusToken string `json:"plus_token,omitempty" yaml:"plus_token,omitempty" mapstructure:"plus_token"`

	// MaxRetries is the number of HTTP 429 retries. Zero disables retrying.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CacheConfig holds settings for the metadata cache.
type CacheConfig struct {
	// Path is the location of the JSON cache document.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// TTL is the freshness window for cached entries (default 7 days).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// SyncConfig holds pacing settings for the batch synchronizer.
type SyncConfig struct {
	// GroupSize bounds the number of concurrent registry requests (default 5).
	GroupSize int `json:"group_size" yaml:"group_size" mapstructure:"group_size"`

	// BatchDelay is the pause between consecutive groups (default 2s).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay" mapstructure:"batch_delay"`

	// MaxJitter is the upper bound of the random delay before each fetch (default 500ms).
	MaxJitter time.Duration `json:"max_jitter" yaml:"max_jitter" mapstructure:"max_jitter"`

	// ImportDelay is the pause between records during a bulk import (default 500ms).
	ImportDelay time.Duration `json:"import_delay" yaml:"import_delay" mapstructure:"import_delay"`
}

// IndexConfig holds settings for the SQLite publication index.
type IndexConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServeConfig holds settings for the read-only HTTP API.
type ServeConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for the pubsync CLI.
type Config struct {
	// ContentDir holds one Markdown file per publication.
	ContentDir string `json:"content_dir" yaml:"content_dir" mapstructure:"content_dir"`

	Registry RegistryConfig `json:"registry" yaml:"registry" mapstructure:"registry"`
	Cache    CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Sync     SyncConfig     `json:"sync" yaml:"sync" mapstructure:"sync"`
	Index    IndexConfig    `json:"index" yaml:"index" mapstructure:"index"`
	Serve    ServeConfig    `json:"serve" yaml:"serve" mapstructure:"serve"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// Default values for Config.
const (
	DefaultContentDir  = "src/content/publications"
	DefaultCachePath   = "public/data/publications-cache.json"
	DefaultIndexPath   = "public/data/publications.db"
	DefaultRegistryURL = "https://api.crossref.org/works/"
	DefaultCacheTTL    = 7 * 24 * time.Hour
	DefaultGroupSize   = 5
	DefaultBatchDelay  = 2 * time.Second
	DefaultMaxJitter   = 500 * time.Millisecond
)

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		ContentDir: DefaultContentDir,
		Registry: RegistryConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "pubsync/0.1",
			},
			BaseURL: DefaultRegistryURL,
			Site:    "https://irl-ct.github.io",
		},
		Cache: CacheConfig{
			Path: DefaultCachePath,
			TTL:  DefaultCacheTTL,
		},
		Sync: SyncConfig{
			GroupSize:   DefaultGroupSize,
			BatchDelay:  DefaultBatchDelay,
			MaxJitter:   DefaultMaxJitter,
			ImportDelay: 500 * time.Millisecond,
		},
		Index: IndexConfig{
			Path:       DefaultIndexPath,
			MaxResults: 20,
		},
		Serve: ServeConfig{Addr: ":8080"},
		Log:   LogConfig{Level: "info", Format: "auto"},
	}
}
