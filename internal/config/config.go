// Package config loads server and CLI settings: built-in defaults, then an
// optional YAML file, then ROLEMASTER_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/alanyang/role-master/internal/adapter/market"
	"github.com/alanyang/role-master/internal/domain/rulefile"
)

const EnvPrefix = "ROLEMASTER_"

// Store drivers accepted by store.driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	Store     StoreConfig     `koanf:"store"`
	Workspace WorkspaceConfig `koanf:"workspace"`
	Market    MarketConfig    `koanf:"market"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type StoreConfig struct {
	Driver      string `koanf:"driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresURL string `koanf:"postgres_url"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisDB     int    `koanf:"redis_db"`
	MongoURI    string `koanf:"mongo_uri"`
	MongoDB     string `koanf:"mongo_db"`
}

type WorkspaceConfig struct {
	Root     string `koanf:"root"`
	RulePath string `koanf:"rule_path"`
}

type MarketConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	// InstallPresets installs the catalog on first start, when no role exists.
	InstallPresets bool `koanf:"install_presets"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":              "info",
		"http.addr":              ":8080",
		"store.driver":           DriverSQLite,
		"store.sqlite_path":      "data/role-master.db",
		"store.postgres_url":     "postgres://localhost:5432/rolemaster?sslmode=disable",
		"store.redis_addr":       "localhost:6379",
		"store.redis_db":         0,
		"store.mongo_uri":        "mongodb://localhost:27017",
		"store.mongo_db":         "rolemaster",
		"workspace.root":         "",
		"workspace.rule_path":    rulefile.DefaultPath,
		"market.url":             market.DefaultURL,
		"market.timeout":         "10s",
		"market.install_presets": false,
	}
}

// Load builds a Config. path may be empty, in which case only defaults and
// the environment apply. ROLEMASTER_STORE_SQLITE__PATH maps to
// store.sqlite_path: a double underscore is kept as a single one.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("load config defaults: %w", err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load config env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	s = strings.ReplaceAll(s, "__", "\x00")
	s = strings.ReplaceAll(s, "_", ".")
	return strings.ReplaceAll(s, "\x00", "_")
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverRedis, DriverMongo:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Market.Timeout <= 0 {
		return fmt.Errorf("market timeout must be positive, got %s", c.Market.Timeout)
	}
	return nil
}

// SlogLevel maps log.level onto slog; unknown values fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
