package config

import (
	"encoding/json"
	"os"

	"github.com/mkraev/dockeep/internal/flagx"
	"github.com/mkraev/dockeep/internal/timex"
)

// serverJson is the DTO for JSON unmarshalling. It uses timex.Duration so
// files can specify intervals either as strings like "24h" or as integer
// nanoseconds; values are then copied into the runtime ServerConfig.
type serverJson struct {
	HTTPAddr              string         `json:"http_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SQLitePath            string         `json:"sqlite_path"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
}

// parseServerJson overlays ServerConfig with values from the JSON file
// named by the -c/-config flags. When no file is named it is a no-op;
// a file that cannot be read or parsed panics.
func parseServerJson(cfg *ServerConfig) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc serverJson

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	// Only fields present in the file override; omitted ones keep their
	// defaults.
	if jc.HTTPAddr != "" {
		cfg.HTTPAddr = jc.HTTPAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SQLitePath != "" {
		cfg.SQLitePath = jc.SQLitePath
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.TokenValidityDuration.Duration != 0 {
		cfg.TokenValidityDuration = jc.TokenValidityDuration.Duration
	}
}
