package config

import (
	"encoding/json"
	"os"

	"github.com/mkraev/dockeep/internal/flagx"
	"github.com/mkraev/dockeep/internal/timex"
)

type clientJson struct {
	ServerURL      string         `json:"server_url"`
	CachePath      string         `json:"cache_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

func parseClientJson(cfg *ClientConfig) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc clientJson

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	// Only fields present in the file override; omitted ones keep their
	// defaults.
	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.CachePath != "" {
		cfg.CachePath = jc.CachePath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
