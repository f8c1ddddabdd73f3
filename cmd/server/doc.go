// Package main is the entry point for the driver server.
//
// The server exposes a browser-automation command surface over HTTP:
// sessions bind an embedded script engine to a parsed document, and
// commands execute JavaScript against it synchronously or asynchronously.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 4444
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
