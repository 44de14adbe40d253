// Package config handles runtime configuration for both binaries:
// defaults, an optional JSON overlay, and command-line flags, each later
// source taking precedence.
package config

import "time"

// ServerConfig holds runtime settings for the document server.
//
// DatabaseDSN selects the storage engine: when set, PostgreSQL is probed
// first; SQLitePath is the embedded fallback.
type ServerConfig struct {
	HTTPAddr              string
	DatabaseDSN           string
	SQLitePath            string
	SecretKey             string
	TokenValidityDuration time.Duration
}

// LoadDefaults populates ServerConfig with development defaults.
// NOTE: the secret is insecure and must be overridden in production.
func (c *ServerConfig) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = ""
	c.SQLitePath = "dockeep.db"
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 24 * time.Hour
}

// LoadServer builds a ServerConfig by applying defaults, then overlaying
// values from an optional JSON file and finally from command-line flags.
func LoadServer() *ServerConfig {
	cfg := &ServerConfig{}
	cfg.LoadDefaults()
	parseServerJson(cfg)
	parseServerFlags(cfg)
	return cfg
}
