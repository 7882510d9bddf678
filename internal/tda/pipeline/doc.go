// Package pipeline runs the per-window feature computation over a whole
// series.
//
// Each window goes through rips → homology → landscape independently, so
// windows are processed by a bounded pool of workers. Every worker writes
// only its own slot of a pre-sized row buffer and the table comes out in
// window order whatever the completion order.
//
// Dependency rule: pipeline is the only package under internal/tda that
// imports all the stages, config and monitoring.
package pipeline
