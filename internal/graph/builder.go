package graph

import (
	"fmt"
	"sort"

	"github.com/gantry-sh/gantry/internal/spec"
)

// Build compiles a deployment document into a resource graph.
//
// Nodes are created in canonical kind order (Network, Role, Cluster,
// NodeGroup, Addon) and lexicographically by name within a kind. Explicit
// dependsOn entries and implicit ${name.attr} references both become
// dependency edges. Unresolvable dependencies and cycles are rejected.
func Build(doc *spec.Document) (*Graph, error) {
	g := New()

	resources := make([]spec.Resource, len(doc.Resources))
	copy(resources, doc.Resources)

	kinds := make(map[string]Kind, len(resources))
	for _, r := range resources {
		k, err := ParseKind(r.Kind)
		if err != nil {
			return nil, &SpecError{Err: fmt.Errorf("resource %q: %w", r.Name, err)}
		}
		kinds[r.Name] = k
	}

	sort.SliceStable(resources, func(i, j int) bool {
		ki, kj := kindOrder[kinds[resources[i].Name]], kindOrder[kinds[resources[j].Name]]
		if ki != kj {
			return ki < kj
		}
		return resources[i].Name < resources[j].Name
	})

	for _, r := range resources {
		node := &Node{
			Name:   r.Name,
			Kind:   kinds[r.Name],
			Config: r.Config,
		}
		if err := g.AddNode(node); err != nil {
			return nil, &SpecError{Err: err}
		}
	}

	for _, r := range resources {
		deps := append([]string{}, r.DependsOn...)
		for _, ref := range ConfigRefs(r.Config) {
			deps = append(deps, ref.Node)
		}
		if err := g.AddDependencies(r.Name, deps); err != nil {
			if ce := AsCyclicDependencyError(err); ce != nil {
				return nil, ce
			}
			return nil, &SpecError{Err: err}
		}
	}

	return g, nil
}
