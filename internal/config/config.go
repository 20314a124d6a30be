package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/spf13/viper"
)

// Catalog source kinds.
const (
	SourceEmbedded = "embedded"
	SourceDir      = "dir"
	SourceHTTP     = "http"
	SourceGit      = "git"
	SourceGitHub   = "github"
)

// Config holds all configuration for modelroute.
type Config struct {
	Catalog          CatalogConfig `mapstructure:"catalog"`
	CacheDir         string        `mapstructure:"cache_dir"`
	CacheTTL         string        `mapstructure:"cache_ttl"`
	NoCache          bool          `mapstructure:"no_cache"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	DefaultEffort    string        `mapstructure:"default_effort"`
	MaxMigrationHops int           `mapstructure:"max_migration_hops"`
	LogLevel         string        `mapstructure:"log_level"`
}

// CatalogConfig selects where the catalog snapshot is read from.
type CatalogConfig struct {
	Source    string       `mapstructure:"source"`
	Path      string       `mapstructure:"path"`
	URL       string       `mapstructure:"url"`
	GitPath   string       `mapstructure:"git_path"`
	GitRef    string       `mapstructure:"git_ref"`
	GitSubdir string       `mapstructure:"git_subdir"`
	GitHub    GitHubConfig `mapstructure:"github"`
}

// GitHubConfig holds settings for fetching a catalog bundle from GitHub.
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	Owner   string `mapstructure:"owner"`
	Repo    string `mapstructure:"repo"`
	Path    string `mapstructure:"path"`
	Ref     string `mapstructure:"ref"`
	BaseURL string `mapstructure:"base_url"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("catalog.source", SourceEmbedded)
	v.SetDefault("catalog.path", "./catalog")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.git_path", ".")
	v.SetDefault("catalog.git_ref", "HEAD")
	v.SetDefault("catalog.git_subdir", "catalog")
	v.SetDefault("catalog.github.owner", "")
	v.SetDefault("catalog.github.repo", "")
	v.SetDefault("catalog.github.path", "catalog.yaml")
	v.SetDefault("catalog.github.ref", "main")
	v.SetDefault("catalog.github.base_url", "")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("no_cache", false)
	v.SetDefault("rate_limit", 2.0)
	v.SetDefault("default_effort", string(catalog.EffortMedium))
	v.SetDefault("max_migration_hops", 10)
	v.SetDefault("log_level", "info")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/modelroute")
	}

	// Environment variables: MODELROUTE_CATALOG_SOURCE etc.
	v.SetEnvPrefix("MODELROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("catalog.github.token", "MODELROUTE_GITHUB_TOKEN", "GITHUB_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Resolve local paths to absolute
	for _, p := range []*string{&cfg.Catalog.Path, &cfg.Catalog.GitPath} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("resolving path %s: %w", *p, err)
		}
		*p = abs
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case SourceEmbedded, SourceDir, SourceGit:
	case SourceHTTP:
		if c.Catalog.URL == "" {
			return fmt.Errorf("catalog.url is required for the %s source", SourceHTTP)
		}
	case SourceGitHub:
		if c.Catalog.GitHub.Owner == "" || c.Catalog.GitHub.Repo == "" {
			return fmt.Errorf("catalog.github.owner and catalog.github.repo are required for the %s source", SourceGitHub)
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Catalog.Source)
	}
	if !catalog.Effort(c.DefaultEffort).Valid() {
		return fmt.Errorf("default_effort %q must be low, medium or high", c.DefaultEffort)
	}
	if c.MaxMigrationHops <= 0 {
		return fmt.Errorf("max_migration_hops must be positive, got %d", c.MaxMigrationHops)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive, got %v", c.RateLimit)
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	return nil
}

// TTL parses the cache TTL.
func (c *Config) TTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("parsing cache_ttl: %w", err)
	}
	return d, nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "modelroute-cache")
	}
	return filepath.Join(dir, "modelroute")
}
