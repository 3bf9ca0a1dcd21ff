// Package reconcile drives live resource state toward the declared graph.
//
// Apply walks the graph in dependency order with a bounded worker pool:
// independent branches proceed concurrently, nodes sharing a dependency
// edge are strictly ordered. Failures stay node-local wherever possible;
// only a state store failure aborts the whole run. Every state transition
// is appended to a journal that forms the audit trail.
package reconcile
