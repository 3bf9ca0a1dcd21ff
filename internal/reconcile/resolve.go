package reconcile

import (
	"sync"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/provider"
)

// outputSet holds resolved output attributes per logical name. It is
// shared across workers; access is serialized internally.
type outputSet struct {
	mu      sync.Mutex
	outputs map[string]provider.Outputs
}

func newOutputSet() *outputSet {
	return &outputSet{outputs: make(map[string]provider.Outputs)}
}

func (o *outputSet) set(name string, out provider.Outputs) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outputs[name] = out
}

func (o *outputSet) get(name, attr string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out, ok := o.outputs[name]
	if !ok {
		return nil, false
	}
	v, ok := lookupAttr(out, attr)
	return v, ok
}

// lookupAttr resolves a possibly dotted attribute path inside outputs.
func lookupAttr(out provider.Outputs, attr string) (any, bool) {
	v, ok := out[attr]
	if ok {
		return v, true
	}
	// Dotted paths descend into nested mappings.
	cur := any(map[string]any(out))
	for {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		for key, val := range m {
			if key == attr {
				return val, true
			}
			prefix := key + "."
			if len(attr) > len(prefix) && attr[:len(prefix)] == prefix {
				cur = val
				attr = attr[len(prefix):]
				goto next
			}
		}
		return nil, false
	next:
	}
}

// resolveConfig substitutes every ${name.attr} reference in a node's
// desired configuration with the dependency's resolved output attribute.
// A reference to an attribute the dependency never produced yields an
// UnresolvedOutputError.
func resolveConfig(node *graph.Node, outputs *outputSet) (map[string]any, error) {
	var firstErr error
	lookup := func(dep, attr string) (any, bool) {
		v, ok := outputs.get(dep, attr)
		if !ok && firstErr == nil {
			firstErr = &UnresolvedOutputError{Node: node.Name, Dependency: dep, Attribute: attr}
		}
		return v, ok
	}

	resolved, err := substituteValue(node.Config, lookup)
	if firstErr != nil {
		return nil, firstErr
	}
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return map[string]any{}, nil
	}
	return resolved.(map[string]any), nil
}

// resolveConfigLenient substitutes what it can and leaves unknown
// references in place, reporting whether everything resolved. Used for
// teardown and dry-run paths where missing outputs must not block the
// walk.
func resolveConfigLenient(node *graph.Node, outputs *outputSet) (map[string]any, bool) {
	lookup := func(dep, attr string) (any, bool) {
		return outputs.get(dep, attr)
	}
	resolved, complete := substituteValueLenient(node.Config, lookup)
	if resolved == nil {
		return map[string]any{}, complete
	}
	return resolved.(map[string]any), complete
}

func substituteValue(v any, lookup func(dep, attr string) (any, bool)) (any, error) {
	switch t := v.(type) {
	case string:
		return graph.Substitute(t, lookup)
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, val := range t {
			sub, err := substituteValue(val, lookup)
			if err != nil {
				return nil, err
			}
			out[key] = sub
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			sub, err := substituteValue(val, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	default:
		return v, nil
	}
}

func substituteValueLenient(v any, lookup func(dep, attr string) (any, bool)) (any, bool) {
	switch t := v.(type) {
	case string:
		sub, err := graph.Substitute(t, lookup)
		if err != nil {
			return t, false
		}
		return sub, true
	case map[string]any:
		out := make(map[string]any, len(t))
		complete := true
		for key, val := range t {
			sub, ok := substituteValueLenient(val, lookup)
			complete = complete && ok
			out[key] = sub
		}
		return out, complete
	case []any:
		out := make([]any, len(t))
		complete := true
		for i, val := range t {
			sub, ok := substituteValueLenient(val, lookup)
			complete = complete && ok
			out[i] = sub
		}
		return out, complete
	default:
		return v, true
	}
}
