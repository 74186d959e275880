// Package metrics provides Prometheus metrics for Hermes.
//
// The Collector registers counters and histograms for authorization
// decisions, action invocations, and conversation turns. It implements the
// orchestrator's Observer interface, so wiring it into an orchestrator is
// enough to populate every metric. The Handler method exposes the registry
// for scraping.
package metrics
