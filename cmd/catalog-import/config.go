package main

import (
	"os"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/catalog/internal/app"
	"github.com/xenking/catalog/internal/domain/catalog"
)

// Config holds the importer configuration. It shares the config files and
// the CATALOG_ env prefix with the server, so db_product is read from the
// same config.json.
type Config struct {
	Source      string `json:"source" yaml:"source" required:"true" usage:"JSONL feed file or http(s) URL, a .gz suffix is decompressed" flag:"source"`
	DatabaseURL string `json:"db_product" yaml:"db_product" usage:"PostgreSQL connection URL (CATALOG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Workers     int    `default:"4" usage:"Concurrent import transactions"`
	Owner       string `json:"owner" yaml:"owner" default:"tenant" usage:"Owner kind for records that carry none: tenant or producer"`
	OwnerID     uint64 `json:"owner_id" yaml:"owner_id" usage:"Owner id for records that carry none" flag:"owner-id"`
	Feed        FeedConfig
}

// FeedConfig controls fetching of remote feeds.
type FeedConfig struct {
	RPS     float64       `default:"0" usage:"Outbound requests per second, 0 disables throttling"`
	Burst   int           `default:"1" usage:"Outbound request burst"`
	Timeout time.Duration `usage:"Whole-request timeout for remote feeds, 0 means none"`
}

// DefaultOwner returns the owner applied to records without an owner field.
func (c *Config) DefaultOwner() (catalog.Owner, error) {
	kind, err := parseOwnerKind(c.Owner)
	if err != nil {
		return catalog.Owner{}, err
	}
	return catalog.Owner{Kind: kind, ID: c.OwnerID}, nil
}

func loadConfig(files []string, skipFlags bool) (*Config, error) {
	var cfg Config
	if err := app.NewLoader(&cfg, files, skipFlags).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set db_product, CATALOG_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
