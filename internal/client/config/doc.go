// Package config loads runtime configuration for the forttask CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML file selected via flags: -c or -config.
//  3. Environment variables prefixed with FORTTASK_.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend url (scheme://host:port)
//	-d string   local SQLite database path
//	-i int      online status check interval (seconds)
//	-l string   log level (debug, info, warn, error)
//
// # YAML schema
//
// Durations are strings such as "15s":
//
//	server_url: http://127.0.0.1:3000
//	database_path: forttask.db
//	request_timeout: 15s
//	online_check_interval: 10s
//	log:
//	  level: info
//	  format: text
//	  backend: slog
//
// The same keys are read from the environment in upper case, sections
// joined with an underscore: FORTTASK_SERVER_URL, FORTTASK_LOG_LEVEL.
package config
