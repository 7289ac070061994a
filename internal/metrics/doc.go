// Package metrics provides [sim.Metric] implementations fed on every step
// of a run. Most report a time average since the last Reset.
package metrics
