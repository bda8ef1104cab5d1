package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/profilesync/internal/flagx"
	"github.com/dmitrijs2005/profilesync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the corresponding Config field untouched.
type JsonConfig struct {
	ProjectURL        *string         `json:"project_url"`
	AnonKey           *string         `json:"anon_key"`
	DataDir           *string         `json:"data_dir"`
	StorageBackend    *string         `json:"storage_backend"`
	DatabaseDSN       *string         `json:"database_dsn"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	HeartbeatInterval *timex.Duration `json:"heartbeat_interval"`
	ListenAddr        *string         `json:"listen_addr"`
	UIToken           *string         `json:"ui_token"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the file given by -c or
// -config. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
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

	setString(&cfg.ProjectURL, jc.ProjectURL)
	setString(&cfg.AnonKey, jc.AnonKey)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.StorageBackend, jc.StorageBackend)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.ListenAddr, jc.ListenAddr)
	setString(&cfg.UIToken, jc.UIToken)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.HeartbeatInterval != nil {
		cfg.HeartbeatInterval = jc.HeartbeatInterval.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
