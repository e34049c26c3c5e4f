// Package config provides centralized configuration management for the SIGMON
// dashboard.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. config.yaml (or the file named by SIGMON_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables use the SIGMON_ prefix followed by the section:
//
//	SIGMON_SERVER_PORT=8080
//	SIGMON_LOGGING_LEVEL=debug
//	SIGMON_SHEETS_CREDENTIALS_JSON=<service account key, raw or base64>
//	SIGMON_SHEETS_CACHE_TTL=5m
//
// Paths are resolved relative to the executable, never the working directory.
package config
