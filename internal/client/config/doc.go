// Package config loads runtime configuration for the profilesync client and
// daemon.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A dotenv file (-env, or ./.env when present) merged into the process
//     environment, then PROFILESYNC_* variables.
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-u string     backend project URL
//	-k string     anonymous API key
//	-d string     local data directory
//	-b string     profile storage backend: rest or postgres
//	-dsn string   postgres DSN (postgres backend only)
//	-t int        request timeout (seconds)
//	-hb int       change feed heartbeat interval (seconds)
//	-l string     UI facade listen address
//	-token string shared token required from UI facade callers
//	-v string     log level: debug, info, warn, error
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "project_url": "https://abc.supabase.co",
//	  "anon_key": "...",
//	  "request_timeout": "10s",
//	  "heartbeat_interval": "25s"
//	}
package config
