package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pipscope/pkg/cache"
)

func TestLoadConfigFileMissing(t *testing.T) {
	cfg, err := loadConfigFile(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("Serve.Addr = %q, want default :8080", cfg.Serve.Addr)
	}
	if cfg.Serve.MaxConcurrent != 4 {
		t.Errorf("Serve.MaxConcurrent = %d, want 4", cfg.Serve.MaxConcurrent)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `audit:
  max_depth: 3
  license: true
cache:
  ttl: 1h
  redis_addr: localhost:6379
serve:
  addr: ":9999"
  mongo_uri: mongodb://localhost:27017
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if cfg.Audit.MaxDepth != 3 {
		t.Errorf("Audit.MaxDepth = %d, want 3", cfg.Audit.MaxDepth)
	}
	if !cfg.Audit.License {
		t.Error("Audit.License should be true")
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache.RedisAddr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.Serve.Addr != ":9999" {
		t.Errorf("Serve.Addr = %q, want :9999", cfg.Serve.Addr)
	}
	if got := cfg.cacheTTL(); got != time.Hour {
		t.Errorf("cacheTTL() = %v, want 1h", got)
	}

	// Values the file does not mention keep their defaults.
	if cfg.Serve.MaxConcurrent != 4 {
		t.Errorf("Serve.MaxConcurrent = %d, want default 4", cfg.Serve.MaxConcurrent)
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("audit: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfigFile(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestCacheTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  string
		want time.Duration
	}{
		{"empty falls back", "", cache.DefaultTTL},
		{"garbage falls back", "soon", cache.DefaultTTL},
		{"negative falls back", "-1h", cache.DefaultTTL},
		{"valid duration", "30m", 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Cache.TTL = tt.ttl
			if got := cfg.cacheTTL(); got != tt.want {
				t.Errorf("cacheTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathsCarryAppName(t *testing.T) {
	paths := map[string]string{
		"config":  configPath(),
		"cache":   cacheDir(),
		"reports": reportsDir(),
	}
	for name, dir := range paths {
		if dir == "" {
			t.Errorf("%s path is empty", name)
			continue
		}
		if !strings.Contains(dir, appName) {
			t.Errorf("%s path %q should contain %q", name, dir, appName)
		}
	}
}
