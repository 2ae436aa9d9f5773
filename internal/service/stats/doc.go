// Package stats computes delivery statistics and health alerts from the
// delivery record store.
//
// All reads are snapshot reads: they tolerate slightly stale data and need
// no isolation beyond the storage layer's default. Rates are always
// zero-safe; an empty window produces zeroed stats, never an error.
package stats
