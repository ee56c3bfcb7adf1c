package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pipscope/pkg/cache"
)

// appName is the application name used for XDG directory paths.
const appName = "pipscope"

// fileConfig is the optional YAML configuration file at
// $XDG_CONFIG_HOME/pipscope/config.yaml. Flags override everything in
// it; the file only supplies defaults.
type fileConfig struct {
	Audit struct {
		MaxDepth int  `yaml:"max_depth,omitempty"`
		License  bool `yaml:"license,omitempty"`
		AllDeps  bool `yaml:"all_deps,omitempty"`
		Retry    bool `yaml:"retry,omitempty"`
	} `yaml:"audit,omitempty"`

	Cache struct {
		TTL       string `yaml:"ttl,omitempty"`
		RedisAddr string `yaml:"redis_addr,omitempty"`
	} `yaml:"cache,omitempty"`

	Serve struct {
		Addr          string `yaml:"addr,omitempty"`
		MaxConcurrent int64  `yaml:"max_concurrent,omitempty"`
		MongoURI      string `yaml:"mongo_uri,omitempty"`
		MongoDatabase string `yaml:"mongo_database,omitempty"`
	} `yaml:"serve,omitempty"`
}

func defaultConfig() *fileConfig {
	cfg := &fileConfig{}
	cfg.Serve.Addr = ":8080"
	cfg.Serve.MaxConcurrent = 4
	cfg.Serve.MongoDatabase = appName
	return cfg
}

// loadConfig reads the config file from the XDG location. A missing
// file is not an error; defaults are returned.
func loadConfig() (*fileConfig, error) {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) (*fileConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// cacheTTL returns the configured cache entry lifetime, falling back
// to the cache package default when unset or unparseable.
func (c *fileConfig) cacheTTL() time.Duration {
	if c.Cache.TTL == "" {
		return cache.DefaultTTL
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d <= 0 {
		return cache.DefaultTTL
	}
	return d
}

// =============================================================================
// Paths
// =============================================================================

// configPath returns the config file location under the XDG config
// directory (~/.config/pipscope/config.yaml on Linux).
func configPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// cacheDir returns the registry response cache directory under the XDG
// cache directory (~/.cache/pipscope on Linux).
func cacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// reportsDir returns the archived report directory under the XDG data
// directory (~/.local/share/pipscope/reports on Linux).
func reportsDir() string {
	return filepath.Join(xdg.DataHome, appName, "reports")
}
