package backoffice

import (
	"time"

	"github.com/cardops/backoffice/models"
)

// Config is the configuration for the back-office application.
type Config struct {
	HTTPAddr     string `koanf:"http_addr"`
	AuthorityURL string `koanf:"authority_url"`
	// Locale and Currency drive amount formatting, e.g. "es-CO" and "COP".
	Locale   string `koanf:"locale"`
	Currency string `koanf:"currency"`
	// RefreshInterval is the dashboard auto-refresh period.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	// SnapshotSize is how many cards/transactions one dashboard snapshot
	// fetches.
	SnapshotSize int `koanf:"snapshot_size"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:        "localhost:8080",
		AuthorityURL:    "http://localhost:9090",
		Locale:          "es-CO",
		Currency:        "COP",
		RefreshInterval: 30 * time.Second,
		SnapshotSize:    100,
	}
}

func (c *Config) Validate() error {
	ve := models.ValidationErrors{}
	if c.HTTPAddr == "" {
		ve.Add("http_addr", "cannot be empty")
	}
	if c.AuthorityURL == "" {
		ve.Add("authority_url", "cannot be empty")
	}
	if c.Locale == "" {
		ve.Add("locale", "cannot be empty")
	}
	if c.Currency == "" {
		ve.Add("currency", "cannot be empty")
	}
	if c.RefreshInterval <= 0 {
		ve.Add("refresh_interval", "must be positive")
	}
	if c.SnapshotSize <= 0 {
		ve.Add("snapshot_size", "must be positive")
	}
	return ve.Err()
}
