// Package config loads the pipeline policy configuration from YAML.
//
// The source registry itself lives in sources.json (see internal/source);
// config.yaml holds the tunable knobs: reference timezone, output path,
// fetch timeouts and worker counts, normalization horizons, dedup thresholds,
// and geocoder settings. A missing file yields the defaults so the binary
// runs with no arguments.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FetchConfig bounds source fetching.
type FetchConfig struct {
	// TimeoutSeconds is the per-source HTTP fetch deadline.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// MaxWorkers caps how many sources are fetched concurrently.
	MaxWorkers int `yaml:"max_workers"`
	// UserAgent is sent on every outbound request.
	UserAgent string `yaml:"user_agent"`
	// Render configures the script-rendering fetcher.
	Render RenderConfig `yaml:"render"`
}

// RenderConfig bounds the headless-browser fetcher.
type RenderConfig struct {
	// PoolSize caps concurrent browser tabs.
	PoolSize int `yaml:"pool_size"`
	// WaitTimeoutSeconds bounds the wait for a source's ready selector.
	WaitTimeoutSeconds int `yaml:"wait_timeout_seconds"`
	// TimeoutSeconds bounds the whole render including navigation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// NormalizeConfig holds record normalization policy.
type NormalizeConfig struct {
	// StaleDays rejects events whose start is more than this many days past.
	StaleDays int `yaml:"stale_days"`
	// HorizonDays bounds recurring-event expansion into the future.
	HorizonDays int `yaml:"horizon_days"`
	// MaxItemsPerSource caps listings taken from a single page.
	MaxItemsPerSource int `yaml:"max_items_per_source"`
}

// DedupConfig holds the heuristic duplicate-matching policy. These are
// tunable constants, not protocol; merge logic never changes with them.
type DedupConfig struct {
	// SimilarityThreshold is the minimum token-set overlap between
	// normalized titles for two records to be considered the same event.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// ToleranceMinutes is the maximum start-time gap on the same date.
	ToleranceMinutes int `yaml:"tolerance_minutes"`
}

// GeocodeConfig controls best-effort coordinate resolution.
type GeocodeConfig struct {
	Enabled bool `yaml:"enabled"`
	// Endpoint is the Nominatim-compatible search URL.
	Endpoint string `yaml:"endpoint"`
	// Contact is included in the User-Agent per the Nominatim usage policy.
	Contact string `yaml:"contact"`
	// RegionBias is appended to bare addresses to narrow results.
	RegionBias string `yaml:"region_bias"`
}

// Config is the top-level pipeline configuration.
type Config struct {
	// Timezone is the fixed reference zone all timestamps normalize to.
	Timezone string `yaml:"timezone"`
	// Output is the published dataset path.
	Output string `yaml:"output"`

	Fetch     FetchConfig     `yaml:"fetch"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Geocode   GeocodeConfig   `yaml:"geocode"`
}

// DefaultConfig returns the in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "America/Indiana/Indianapolis",
		Output:   "events.json",
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
			MaxWorkers:     4,
			UserAgent:      "indy-events/1.0 (github.com/mutiny19/indy-events)",
			Render: RenderConfig{
				PoolSize:           1,
				WaitTimeoutSeconds: 5,
				TimeoutSeconds:     45,
			},
		},
		Normalize: NormalizeConfig{
			StaleDays:         7,
			HorizonDays:       180,
			MaxItemsPerSource: 15,
		},
		Dedup: DedupConfig{
			SimilarityThreshold: 0.55,
			ToleranceMinutes:    90,
		},
		Geocode: GeocodeConfig{
			Enabled:    false,
			Endpoint:   "https://nominatim.openstreetmap.org/search",
			Contact:    "crew@mutiny19.com",
			RegionBias: "Indiana",
		},
	}
}

// ApplyDefaults fills in missing/zero values with defaults so
// partially-filled configs still behave correctly.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = d.Fetch.TimeoutSeconds
	}
	if c.Fetch.MaxWorkers <= 0 {
		c.Fetch.MaxWorkers = d.Fetch.MaxWorkers
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = d.Fetch.UserAgent
	}
	if c.Fetch.Render.PoolSize <= 0 {
		c.Fetch.Render.PoolSize = d.Fetch.Render.PoolSize
	}
	if c.Fetch.Render.WaitTimeoutSeconds <= 0 {
		c.Fetch.Render.WaitTimeoutSeconds = d.Fetch.Render.WaitTimeoutSeconds
	}
	if c.Fetch.Render.TimeoutSeconds <= 0 {
		c.Fetch.Render.TimeoutSeconds = d.Fetch.Render.TimeoutSeconds
	}
	if c.Normalize.StaleDays <= 0 {
		c.Normalize.StaleDays = d.Normalize.StaleDays
	}
	if c.Normalize.HorizonDays <= 0 {
		c.Normalize.HorizonDays = d.Normalize.HorizonDays
	}
	if c.Normalize.MaxItemsPerSource <= 0 {
		c.Normalize.MaxItemsPerSource = d.Normalize.MaxItemsPerSource
	}
	if c.Dedup.SimilarityThreshold <= 0 || c.Dedup.SimilarityThreshold > 1 {
		c.Dedup.SimilarityThreshold = d.Dedup.SimilarityThreshold
	}
	if c.Dedup.ToleranceMinutes <= 0 {
		c.Dedup.ToleranceMinutes = d.Dedup.ToleranceMinutes
	}
	if c.Geocode.Endpoint == "" {
		c.Geocode.Endpoint = d.Geocode.Endpoint
	}
	if c.Geocode.RegionBias == "" {
		c.Geocode.RegionBias = d.Geocode.RegionBias
	}
}

// Load loads configuration from the given YAML path. A missing file returns
// the defaults; anything else (unreadable file, bad YAML, unknown timezone)
// is a run-level fatal error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves the configured reference timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// FetchTimeout returns the per-source fetch deadline as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// Tolerance returns the dedup start-time tolerance as a duration.
func (c *Config) Tolerance() time.Duration {
	return time.Duration(c.Dedup.ToleranceMinutes) * time.Minute
}
