// Package config loads runtime configuration for the MindKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config or $MINDKEEPER_CONFIG.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Intervals accept "3s" style strings or integer nanoseconds:
//
//	{
//	  "data_api_url": "https://data.example/app/v1",
//	  "api_key": "...",
//	  "store_path": "mindkeeper.db",
//	  "storage_quota": 5242880,
//	  "passphrase": "prompt",
//	  "sync_preference": "daily",
//	  "online_check_interval": "3s",
//	  "request_timeout": "15s",
//	  "retry_attempts": 2,
//	  "log_file": "mindkeeper.log"
//	}
package config
