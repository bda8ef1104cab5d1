package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/flagx"
)

var knownFlags = []string{"-u", "-k", "-d", "-b", "-dsn", "-t", "-hb", "-l", "-token", "-v"}

// parseFlags populates Config fields from command-line flags. Only the flags
// listed in knownFlags are looked at, so -c and -env handled elsewhere do not
// interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ProjectURL, "u", cfg.ProjectURL, "backend project URL")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "anonymous API key")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory")
	fs.StringVar(&cfg.StorageBackend, "b", cfg.StorageBackend, "profile storage backend (rest|postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "postgres DSN")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	heartbeat := fs.Int("hb", int(cfg.HeartbeatInterval.Seconds()), "change feed heartbeat interval (in seconds)")
	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "UI facade listen address")
	fs.StringVar(&cfg.UIToken, "token", cfg.UIToken, "shared UI facade token")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// sub-second values from earlier sources survive unless the flag is given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		case "hb":
			cfg.HeartbeatInterval = time.Duration(*heartbeat) * time.Second
		}
	})
}
