package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "VENDING_"

const (
	DriverNone  = "none"
	DriverFile  = "file"
	DriverRedis = "redis"
	DriverMySQL = "mysql"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		Addr         string        `koanf:"addr"`
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
		CORSOrigin   string        `koanf:"cors_origin"`
	} `koanf:"http"`

	Store struct {
		Driver   string `koanf:"driver"`
		FilePath string `koanf:"file_path"`
	} `koanf:"store"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
		Key      string `koanf:"key"`
	} `koanf:"redis"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Tracing struct {
		OTLPEndpoint string  `koanf:"otlp_endpoint"`
		URLPath      string  `koanf:"url_path"`
		Insecure     bool    `koanf:"insecure"`
		SampleRatio  float64 `koanf:"sample_ratio"`
	} `koanf:"tracing"`

	Seed struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"seed"`
}

func defaults(envName string) map[string]any {
	if envName == "" {
		envName = "dev"
	}
	return map[string]any{
		"app.name":                "vending-machine",
		"app.env":                 envName,
		"app.log_level":           "info",
		"http.addr":               ":8080",
		"http.read_timeout":       "5s",
		"http.write_timeout":      "10s",
		"http.idle_timeout":       "60s",
		"http.cors_origin":        "*",
		"store.driver":            DriverNone,
		"store.file_path":         "data/state.json",
		"redis.addr":              "localhost:6379",
		"redis.key":               "vending:state",
		"mysql.max_open_conns":    10,
		"mysql.max_idle_conns":    5,
		"mysql.conn_max_lifetime": "5m",
		"tracing.sample_ratio":    1.0,
		"seed.enabled":            true,
	}
}

// Load layers built-in defaults, <dir>/base.yaml, <dir>/<envName>.yaml and
// VENDING_* environment variables, later sources winning. Both files are
// optional. Nested keys use "__" in variable names, e.g. VENDING_HTTP__ADDR.
func Load(dir, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(envName), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := loadOptionalFile(k, filepath.Join(dir, "base.yaml")); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}
	if envName != "" {
		if err := loadOptionalFile(k, filepath.Join(dir, envName+".yaml")); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envName, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr required")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	switch c.Store.Driver {
	case DriverNone:
	case DriverFile:
		if c.Store.FilePath == "" {
			return fmt.Errorf("store.file_path required for driver %q", DriverFile)
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr required for driver %q", DriverRedis)
		}
	case DriverMySQL:
		if c.MySQL.DSN == "" {
			return fmt.Errorf("mysql.dsn required for driver %q", DriverMySQL)
		}
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	return nil
}
