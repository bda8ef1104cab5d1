package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// Config holds runtime settings shared by the CLI and the daemon.
type Config struct {
	ProjectURL        string
	AnonKey           string
	DataDir           string
	StorageBackend    string
	DatabaseDSN       string
	RequestTimeout    time.Duration
	HeartbeatInterval time.Duration
	ListenAddr        string
	UIToken           string
	LogLevel          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ProjectURL = "http://127.0.0.1:54321"
	c.DataDir = defaultDataDir()
	c.StorageBackend = BackendREST
	c.RequestTimeout = 10 * time.Second
	c.HeartbeatInterval = 25 * time.Second
	c.ListenAddr = "127.0.0.1:50061"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// MetadataDSN is the sqlite file holding the sealed session.
func (c *Config) MetadataDSN() string {
	return filepath.Join(c.DataDir, "profilesync.db")
}

// DeviceKeyPath is the per-device key file the session is sealed under.
func (c *Config) DeviceKeyPath() string {
	return filepath.Join(c.DataDir, "device.key")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".profilesync"
	}
	return filepath.Join(dir, "profilesync")
}
