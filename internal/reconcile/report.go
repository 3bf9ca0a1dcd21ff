package reconcile

import (
	"sort"

	"github.com/gantry-sh/gantry/internal/graph"
)

// NodeResult is the final outcome for one node.
type NodeResult struct {
	Name  string
	Kind  graph.Kind
	State graph.State

	// Err is the originating error for non-Applied (or non-Deleted)
	// nodes. Failures are never dropped from the report.
	Err error
}

// Report summarizes a reconciliation run: every node's final state plus
// the journal of transitions.
type Report struct {
	Results []NodeResult
	Journal []Entry
}

// newReport collects results from the graph, sorted by logical name.
func newReport(g *graph.Graph, journal *Journal) *Report {
	results := make([]NodeResult, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		results = append(results, NodeResult{
			Name:  n.Name,
			Kind:  n.Kind,
			State: n.State,
			Err:   n.Err,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return &Report{Results: results, Journal: journal.Entries()}
}

// AllIn reports whether every node ended in the given state.
func (r *Report) AllIn(s graph.State) bool {
	for _, res := range r.Results {
		if res.State != s {
			return false
		}
	}
	return true
}

// Failed returns the results of nodes that did not reach the given state.
func (r *Report) Failed(want graph.State) []NodeResult {
	var out []NodeResult
	for _, res := range r.Results {
		if res.State != want {
			out = append(out, res)
		}
	}
	return out
}

// Result returns the result for a logical name, with ok=false when absent.
func (r *Report) Result(name string) (NodeResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return NodeResult{}, false
}
