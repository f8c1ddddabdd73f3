// Package config provides 12-factor configuration management for the driver.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, rate limiting)
//   - Logging: Log level and output format
//   - Engine: script engine tunables (bootstrap retries, worker startup
//     timeout, async poll interval and default timeout)
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Driver listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SCRIPT_BOOTSTRAP_ATTEMPTS, SCRIPT_BOOTSTRAP_DELAY
//   - SCRIPT_WORKER_STARTUP_TIMEOUT, SCRIPT_ASYNC_POLL_INTERVAL, SCRIPT_ASYNC_TIMEOUT
package config
