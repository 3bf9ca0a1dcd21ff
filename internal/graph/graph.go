package graph

import (
	"fmt"
	"sort"
)

// Kind identifies the type of a declared resource.
type Kind string

// Resource kinds in canonical order.
const (
	KindNetwork   Kind = "Network"
	KindRole      Kind = "Role"
	KindCluster   Kind = "Cluster"
	KindNodeGroup Kind = "NodeGroup"
	KindAddon     Kind = "Addon"
)

// kindOrder gives the canonical ordering used when building nodes. It is a
// presentation order only; dependency edges drive reconciliation order.
var kindOrder = map[Kind]int{
	KindNetwork:   0,
	KindRole:      1,
	KindCluster:   2,
	KindNodeGroup: 3,
	KindAddon:     4,
}

// ParseKind validates a kind string from the spec document.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindOrder[k]; !ok {
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
	return k, nil
}

// State is the lifecycle state of a resource node.
type State string

// Lifecycle states. Applied, Failed and Deleted are terminal for a single
// reconciliation run.
const (
	StatePending  State = "Pending"
	StateApplying State = "Applying"
	StateApplied  State = "Applied"
	StateFailed   State = "Failed"
	StateDeleting State = "Deleting"
	StateDeleted  State = "Deleted"
)

// Terminal reports whether s ends a node's participation in an apply run.
func (s State) Terminal() bool {
	return s == StateApplied || s == StateFailed || s == StateDeleted
}

// Node is a single declared resource.
type Node struct {
	Name      string
	Kind      Kind
	Config    map[string]any
	DependsOn map[string]struct{}

	// State is mutated only by the reconciler.
	State State

	// Err holds the originating error when State is Failed.
	Err error
}

// Dependencies returns the node's dependency names sorted lexicographically.
func (n *Node) Dependencies() []string {
	deps := make([]string, 0, len(n.DependsOn))
	for d := range n.DependsOn {
		deps = append(deps, d)
	}
	sort.Strings(deps)
	return deps
}

// Graph is a directed acyclic graph of resource nodes keyed by logical name.
type Graph struct {
	Nodes map[string]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode inserts a node. Logical names must be unique.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.Nodes[n.Name]; exists {
		return fmt.Errorf("duplicate node %q", n.Name)
	}
	if n.DependsOn == nil {
		n.DependsOn = make(map[string]struct{})
	}
	if n.State == "" {
		n.State = StatePending
	}
	g.Nodes[n.Name] = n
	return nil
}

// AddDependencies records that node depends on each of deps. Every
// dependency must resolve to an existing node; self references and edges
// that would close a cycle are rejected.
func (g *Graph) AddDependencies(node string, deps []string) error {
	n, ok := g.Nodes[node]
	if !ok {
		return fmt.Errorf("node %q does not exist", node)
	}
	for _, dep := range deps {
		if dep == node {
			return fmt.Errorf("node %q cannot depend on itself", node)
		}
		if _, ok := g.Nodes[dep]; !ok {
			return fmt.Errorf("node %q depends on unknown node %q", node, dep)
		}
		n.DependsOn[dep] = struct{}{}

		if cyclic, cycle := g.hasCycle(); cyclic {
			delete(n.DependsOn, dep)
			return &CyclicDependencyError{Cycle: cycle}
		}
	}
	return nil
}

// Dependents returns the names of nodes that depend on name, sorted.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, n := range g.Nodes {
		if _, ok := n.DependsOn[name]; ok {
			out = append(out, n.Name)
		}
	}
	sort.Strings(out)
	return out
}

// names returns all node names sorted lexicographically.
func (g *Graph) names() []string {
	out := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TopologicalSort returns the node names ordered so that every node appears
// after all of its dependencies. Ties are broken lexicographically on
// logical name, making the order deterministic.
func (g *Graph) TopologicalSort() ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	for name, n := range g.Nodes {
		indegree[name] += 0
		for range n.DependsOn {
			indegree[name]++
		}
	}

	// Kahn's algorithm with a sorted frontier for the stable tie-break.
	var order []string
	for len(order) < len(g.Nodes) {
		frontier := make([]string, 0)
		for _, name := range g.names() {
			if indegree[name] == 0 {
				frontier = append(frontier, name)
			}
		}
		if len(frontier) == 0 {
			_, cycle := g.hasCycle()
			return nil, &CyclicDependencyError{Cycle: cycle}
		}
		for _, name := range frontier {
			order = append(order, name)
			indegree[name] = -1
			for _, dependent := range g.Dependents(name) {
				indegree[dependent]--
			}
		}
	}
	return order, nil
}

// ReverseTopologicalSort returns the deletion order: every node appears
// before all of its dependencies.
func (g *Graph) ReverseTopologicalSort() ([]string, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// hasCycle reports whether the graph contains a dependency cycle and, if
// so, returns the names on one such cycle.
func (g *Graph) hasCycle() (bool, []string) {
	const (
		white = 0 // unvisited
		grey  = 1 // on the current path
		black = 2 // done
	)
	color := make(map[string]int, len(g.Nodes))
	var path []string

	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = grey
		path = append(path, name)
		for _, dep := range g.Nodes[name].Dependencies() {
			switch color[dep] {
			case grey:
				// Trim the path to the cycle itself.
				for i, p := range path {
					if p == dep {
						return append(append([]string{}, path[i:]...), dep)
					}
				}
				return []string{dep, name, dep}
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		color[name] = black
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range g.names() {
		if color[name] == white {
			if cycle := visit(name); cycle != nil {
				return true, cycle
			}
		}
		path = path[:0]
	}
	return false, nil
}
