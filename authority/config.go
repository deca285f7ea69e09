package authority

import "time"

// Config is the configuration for the authority application.
type Config struct {
	HTTPAddr string `koanf:"http_addr"`
	// Backend selects the repository: "mem" or "pg".
	Backend string `koanf:"backend"`
	// DSN is the postgres connection string, required for the pg backend.
	DSN string `koanf:"dsn"`
	// PANHashKey is the pepper for PAN hashing in the pg backend.
	PANHashKey string `koanf:"pan_hash_key"`
	// CancelWindow bounds how long after creation a transaction may still be
	// cancelled.
	CancelWindow time.Duration `koanf:"cancel_window"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:     "localhost:9090",
		Backend:      "mem",
		PANHashKey:   "dev-secret-pepper",
		CancelWindow: 5 * time.Minute,
	}
}
