// Package config handles configuration for the LinkStash client:
// defaults, JSON overlay, and command-line flags, in that order.
package config

import "time"

// Config holds runtime settings for the LinkStash client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - DatabaseDSN: path of the local SQLite cache file.
//   - SyncDelay: settle delay between a sign-in and the automatic
//     reconciliation pass it triggers.
type Config struct {
	ServerEndpointAddr string
	DatabaseDSN        string
	SyncDelay          time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "linkstash.db"
	c.SyncDelay = 2 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
