package config

import "time"

// ClientConfig holds runtime settings for the document CLI.
//
// RequestTimeout bounds every remote call; a call that exceeds it is
// treated as server-unreachable.
type ClientConfig struct {
	ServerURL      string
	CachePath      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *ClientConfig) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.CachePath = "dockeep-cache.json"
	c.RequestTimeout = 10 * time.Second
}

// LoadClient constructs a ClientConfig, applies defaults, then overlays
// values from JSON (if present) and command-line flags (if present).
func LoadClient() *ClientConfig {
	cfg := &ClientConfig{}
	cfg.LoadDefaults()
	parseClientJson(cfg)
	parseClientFlags(cfg)
	return cfg
}
