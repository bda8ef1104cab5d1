package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "PROFILESYNC_"

// parseEnv loads a dotenv file into the process environment (existing
// variables win) and overlays every PROFILESYNC_* variable that is set.
// An explicit -env file that cannot be read panics; a missing ./.env is
// ignored.
func parseEnv(cfg *Config) {
	if path := flagx.EnvFile(os.Args[1:]); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	lookupString("PROJECT_URL", &cfg.ProjectURL)
	lookupString("ANON_KEY", &cfg.AnonKey)
	lookupString("DATA_DIR", &cfg.DataDir)
	lookupString("STORAGE_BACKEND", &cfg.StorageBackend)
	lookupString("DATABASE_DSN", &cfg.DatabaseDSN)
	lookupDuration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	lookupDuration("HEARTBEAT_INTERVAL", &cfg.HeartbeatInterval)
	lookupString("LISTEN_ADDR", &cfg.ListenAddr)
	lookupString("UI_TOKEN", &cfg.UIToken)
	lookupString("LOG_LEVEL", &cfg.LogLevel)
}

func lookupString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func lookupDuration(name string, dst *time.Duration) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
