// Package config loads runtime configuration for the cardkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJSON) selected via flags: -c or -config.
//  3. CARDKEEPER_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the account API
//	-g string   gRPC address of the account service; selects gRPC over HTTP
//	-d string   path of the local SQLite store
//	-s string   fallback request signing secret
//	-k string   passphrase sealing stored credentials
//	-p int      list page size
//	-t duration request timeout, e.g. 5s
//	-i int      unread notification poll interval (seconds, 0 disables)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.example.com",
//	  "grpc_address": "",
//	  "store_path": "cardkeeper.db",
//	  "page_size": 20,
//	  "request_timeout": "10s",
//	  "unread_poll_interval": "30s",
//	  "log_level": "info"
//	}
package config
