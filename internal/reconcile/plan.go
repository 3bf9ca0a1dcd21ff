package reconcile

import (
	"context"
	"sort"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/state"
)

// Action classifies what an apply run would do to one node.
type Action string

// Plan actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionNoop   Action = "noop"
	ActionDelete Action = "delete"
)

// PlanStep is the dry-run verdict for one logical name.
type PlanStep struct {
	Name   string
	Kind   graph.Kind
	Action Action

	// Reason explains non-noop verdicts in one line.
	Reason string
}

// PlanResult is a dry-run diff of the graph against stored state. No
// provider calls are issued while computing it.
type PlanResult struct {
	Steps []PlanStep
}

// Summary returns the number of steps per action.
func (p *PlanResult) Summary() map[Action]int {
	out := make(map[Action]int)
	for _, s := range p.Steps {
		out[s.Action]++
	}
	return out
}

// Changes reports whether any step mutates provider state.
func (p *PlanResult) Changes() bool {
	for _, s := range p.Steps {
		if s.Action != ActionNoop {
			return true
		}
	}
	return false
}

// Plan diffs desired configuration against the state store in topological
// order. References to outputs of nodes that would change are treated as
// unknown, forcing the referencing node to an update verdict.
func (r *Reconciler) Plan(ctx context.Context, g *graph.Graph) (*PlanResult, error) {
	records, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	outputs := newOutputSet()
	for name, rec := range records {
		if rec.State == graph.StateApplied {
			outputs.set(name, rec.Outputs)
		}
	}

	result := &PlanResult{}
	willChange := make(map[string]bool)

	for _, name := range order {
		n := g.Nodes[name]
		step := PlanStep{Name: name, Kind: n.Kind}

		// A changing dependency invalidates stored outputs we would
		// resolve against.
		depChanged := ""
		for _, dep := range n.Dependencies() {
			if willChange[dep] {
				depChanged = dep
				break
			}
		}

		rec, found := records[name]
		cfg, complete := resolveConfigLenient(n, outputs)

		switch {
		case !found:
			step.Action = ActionCreate
			step.Reason = "not in state"
		case depChanged != "":
			step.Action = ActionUpdate
			step.Reason = "depends on outputs of " + depChanged
		case !complete:
			step.Action = ActionUpdate
			step.Reason = "references unresolved outputs"
		case rec.State != graph.StateApplied:
			step.Action = ActionUpdate
			step.Reason = "last apply did not complete"
		case rec.ConfigHash != state.HashConfig(cfg):
			step.Action = ActionUpdate
			step.Reason = "configuration changed"
		default:
			step.Action = ActionNoop
		}

		willChange[name] = step.Action != ActionNoop
		result.Steps = append(result.Steps, step)
	}

	// Records with no declared resource would be orphaned by this spec.
	var orphans []string
	for name := range records {
		if _, ok := g.Nodes[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		result.Steps = append(result.Steps, PlanStep{
			Name:   name,
			Kind:   records[name].Kind,
			Action: ActionDelete,
			Reason: "no longer declared",
		})
	}

	return result, nil
}
