package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/linkstash/internal/flagx"
	"github.com/dmitrijs2005/linkstash/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	SyncDelay          timex.Duration `json:"sync_delay"`
}

// parseJson overlays cfg with values loaded from the JSON file given via
// the -c/-config flags. No file, no overlay. Read or parse errors panic;
// the caller may recover if desired.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SyncDelay.Duration != 0 {
		cfg.SyncDelay = jc.SyncDelay.Duration
	}
}
