package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/gantry-sh/gantry/internal/graph"
)

// Outputs are the resolved output attributes of an applied resource.
// Values are strings, lists of strings, or nested mappings.
type Outputs map[string]any

// Request carries everything a handler needs about one resource. Config is
// the desired configuration with all output references already resolved.
type Request struct {
	Project string
	Name    string
	Kind    graph.Kind
	Config  map[string]any
}

// Provider converges live resources toward desired state.
type Provider interface {
	// Ensure creates or updates the resource and returns its outputs.
	Ensure(ctx context.Context, req Request) (Outputs, error)

	// TearDown removes the resource. Removing an absent resource succeeds.
	TearDown(ctx context.Context, req Request) error

	// Health reports whether a previously applied resource is still
	// healthy as seen by the provider.
	Health(ctx context.Context, req Request) (bool, error)
}

// Handler implements Provider behavior for a single resource kind.
type Handler interface {
	Ensure(ctx context.Context, req Request) (Outputs, error)
	TearDown(ctx context.Context, req Request) error
	Health(ctx context.Context, req Request) (bool, error)
}

// Registry dispatches provider calls to per-kind handlers. Kinds are
// registered, not hard-coded, so new resource kinds plug in without
// touching dispatch.
type Registry struct {
	handlers map[graph.Kind]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[graph.Kind]Handler)}
}

// Register installs the handler for a kind, replacing any previous one.
func (r *Registry) Register(kind graph.Kind, h Handler) {
	r.handlers[kind] = h
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []graph.Kind {
	out := make([]graph.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) handler(req Request) (Handler, error) {
	h, ok := r.handlers[req.Kind]
	if !ok {
		return nil, Permanent(fmt.Errorf("no handler registered for kind %s", req.Kind))
	}
	return h, nil
}

// Ensure dispatches to the handler for the request's kind.
func (r *Registry) Ensure(ctx context.Context, req Request) (Outputs, error) {
	h, err := r.handler(req)
	if err != nil {
		return nil, err
	}
	return h.Ensure(ctx, req)
}

// TearDown dispatches to the handler for the request's kind.
func (r *Registry) TearDown(ctx context.Context, req Request) error {
	h, err := r.handler(req)
	if err != nil {
		return err
	}
	return h.TearDown(ctx, req)
}

// Health dispatches to the handler for the request's kind.
func (r *Registry) Health(ctx context.Context, req Request) (bool, error) {
	h, err := r.handler(req)
	if err != nil {
		return false, err
	}
	return h.Health(ctx, req)
}
