// Package monitoring collects Prometheus metrics for the driver: script
// executions by mode and status, execution latency, and in-flight
// asynchronous workers. Metrics register against a private registry so
// embedding tests never collide with the default one.
package monitoring
