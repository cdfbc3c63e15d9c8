package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AniListConfig controls how the upstream AniList client is built.
type AniListConfig struct {
	// Endpoint is the GraphQL endpoint URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// UserAgent is sent with every upstream request.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	// PerPage is the page size used when paging through favourites.
	PerPage int `yaml:"per_page" json:"per_page"`
	// TimeoutSeconds bounds a single upstream HTTP request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// CacheConfig bounds the in-memory birthday cache.
type CacheConfig struct {
	// TTLMinutes is how long a fetched collection stays live.
	TTLMinutes int `yaml:"ttl_minutes" json:"ttl_minutes"`
	// Capacity bounds the summed character count across all entries.
	Capacity int `yaml:"capacity" json:"capacity"`
}

// BreakerConfig tunes the circuit breaker in front of AniList.
type BreakerConfig struct {
	// TripThreshold is the number of consecutive systemic failures that
	// opens the breaker.
	TripThreshold int `yaml:"trip_threshold" json:"trip_threshold"`
	// CooldownSeconds is how long the breaker stays open before a trial
	// call is allowed.
	CooldownSeconds int `yaml:"cooldown_seconds" json:"cooldown_seconds"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// WindowDays is the size of the "upcoming birthdays" window.
	WindowDays int `yaml:"window_days" json:"window_days"`

	// SweepCron is a cron-style schedule (e.g. "*/15 * * * *") for the
	// background cache sweep and warm-user refresh.
	SweepCron string `yaml:"sweep" json:"sweep"`

	// WarmUsers are usernames whose birthdays are refreshed on the sweep
	// schedule so their pages stay warm.
	WarmUsers []string `yaml:"warm_users" json:"warm_users"`

	AniList AniListConfig `yaml:"anilist" json:"anilist"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:     "127.0.0.1:8080",
		WindowDays: 30,
		SweepCron:  "*/15 * * * *",
		WarmUsers:  []string{},
		AniList: AniListConfig{
			Endpoint:       "https://graphql.anilist.co",
			UserAgent:      "bdaycal",
			PerPage:        50,
			TimeoutSeconds: 15,
		},
		Cache: CacheConfig{
			TTLMinutes: 15,
			Capacity:   1024 * 1024,
		},
		Breaker: BreakerConfig{
			TripThreshold:   3,
			CooldownSeconds: 30,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.WindowDays <= 0 {
		c.WindowDays = def.WindowDays
	}
	if c.SweepCron == "" {
		c.SweepCron = def.SweepCron
	}
	if c.WarmUsers == nil {
		c.WarmUsers = []string{}
	}

	if c.AniList.Endpoint == "" {
		c.AniList.Endpoint = def.AniList.Endpoint
	}
	if c.AniList.UserAgent == "" {
		c.AniList.UserAgent = def.AniList.UserAgent
	}
	if c.AniList.PerPage <= 0 {
		c.AniList.PerPage = def.AniList.PerPage
	}
	if c.AniList.TimeoutSeconds <= 0 {
		c.AniList.TimeoutSeconds = def.AniList.TimeoutSeconds
	}

	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = def.Cache.TTLMinutes
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = def.Cache.Capacity
	}

	if c.Breaker.TripThreshold <= 0 {
		c.Breaker.TripThreshold = def.Breaker.TripThreshold
	}
	if c.Breaker.CooldownSeconds <= 0 {
		c.Breaker.CooldownSeconds = def.Breaker.CooldownSeconds
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".bdaycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
