// Package loader caches the model backends used by the stages.
//
// Loading a model is expensive, so stages ask the cache for a backend by Key and only pay the
// load cost on a miss. Concurrent requests for the same key share one load. The cache keeps at
// most its capacity of backends and evicts the least recently used one first; evicted backends
// implementing io.Closer are closed.
package loader
