package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the catalog server configuration, loadable from environment
// variables (CATALOG_ prefix), flags, config.json or YAML files. The JSON keys
// db_product, redis_url and redis_password match the legacy config.json.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `json:"db_product" yaml:"db_product" usage:"PostgreSQL connection URL (CATALOG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL      string `json:"redis_url" yaml:"redis_url" usage:"Redis URL; Redis is not used when empty" flag:"redis-url"`
	RedisPassword string `json:"redis_password" yaml:"redis_password" usage:"Redis password, overrides the one in the URL" flag:"redis-password"`
	RateLimit     RateLimitConfig
	Graceful      GracefulConfig
}

// RateLimitConfig controls the per-client inbound rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Files lists the config files probed in order; the first one found wins.
var Files = []string{"config.json", "config.yaml", "/etc/catalog/config.yaml"}

// NewLoader returns an aconfig loader for dst using the catalog file set and
// the CATALOG_ env prefix.
func NewLoader(dst any, files []string, skipFlags bool) *aconfig.Loader {
	return aconfig.LoaderFor(dst, aconfig.Config{
		EnvPrefix:          "CATALOG",
		SkipFlags:          skipFlags,
		AllowUnknownFields: true,
		AllowUnknownEnvs:   true,
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

// LoadConfig loads configuration from the environment, flags and the first
// config file found, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(Files, false)
}

func loadConfig(files []string, skipFlags bool) (*Config, error) {
	var cfg Config
	if err := NewLoader(&cfg, files, skipFlags).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set db_product, CATALOG_DATABASE_URL or DATABASE_URL")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided variables like DATABASE_URL
// and PORT onto the configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// Get returns a configuration value by its legacy key name. Empty values
// count as missing.
func (c *Config) Get(key string) (string, bool) {
	var v string
	switch key {
	case "db_product":
		v = c.DatabaseURL
	case "redis_url":
		v = c.RedisURL
	case "redis_password":
		v = c.RedisPassword
	case "addr":
		v = c.Addr
	}
	return v, v != ""
}
