// Package telemetry holds the process-level observability: the zap logger
// shared by every package and a prometheus [Collector] that exposes a
// running simulation on /metrics.
package telemetry
