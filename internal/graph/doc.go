// Package graph models declared resources as a directed acyclic graph.
//
// Nodes are typed resources (network, role, cluster, node group, addon);
// edges say "depends on output of". The graph owns its nodes; lifecycle
// state is mutated only by the reconciler. Dependency edges, not kinds,
// are the authoritative ordering signal.
package graph
