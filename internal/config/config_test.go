package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.App.Env != "dev" || cfg.Store.Driver != DriverNone {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second || cfg.MySQL.ConnMaxLifetime != 5*time.Minute {
		t.Fatalf("durations not decoded: %+v", cfg.HTTP)
	}
	if !cfg.Seed.Enabled {
		t.Fatal("seeding should default to on")
	}
}

func TestLoad_LayerOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
app:
  log_level: debug
http:
  addr: ":9000"
store:
  driver: file
  file_path: /tmp/base.json
`)
	writeFile(t, dir, "prod.yaml", `
http:
  addr: ":9100"
`)
	t.Setenv("VENDING_STORE__FILE_PATH", "/var/lib/vending/state.json")
	t.Setenv("VENDING_SEED__ENABLED", "false")

	cfg, err := Load(dir, "prod")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Env != "prod" {
		t.Errorf("env: got %q", cfg.App.Env)
	}
	if cfg.App.LogLevel != "debug" {
		t.Errorf("base.yaml not applied: %q", cfg.App.LogLevel)
	}
	if cfg.HTTP.Addr != ":9100" {
		t.Errorf("prod.yaml should override base: %q", cfg.HTTP.Addr)
	}
	if cfg.Store.FilePath != "/var/lib/vending/state.json" {
		t.Errorf("env should override files: %q", cfg.Store.FilePath)
	}
	if cfg.Seed.Enabled {
		t.Error("VENDING_SEED__ENABLED=false not applied")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"missing addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "unknown driver"},
		{"file without path", func(c *Config) { c.Store.Driver, c.Store.FilePath = DriverFile, "" }, "store.file_path"},
		{"redis without addr", func(c *Config) { c.Store.Driver, c.Redis.Addr = DriverRedis, "" }, "redis.addr"},
		{"mysql without dsn", func(c *Config) { c.Store.Driver = DriverMySQL }, "mysql.dsn"},
		{"sample ratio out of range", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, "sample_ratio"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(t.TempDir(), "")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.mutate(&cfg)
			err = cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
