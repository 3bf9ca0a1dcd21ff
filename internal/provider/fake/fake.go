// Package fake provides an in-memory Provider for tests.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/gantry-sh/gantry/internal/provider"
)

// Provider simulates a cloud provider. Resources live in memory; failures
// are scripted per logical name.
type Provider struct {
	mu sync.Mutex

	// resources maps logical name to the outputs reported for it.
	resources map[string]provider.Outputs

	// EnsureErrs scripts errors for Ensure, consumed one per call. A nil
	// entry (or exhausted slice) means success.
	EnsureErrs map[string][]error

	// TearDownErrs scripts errors for TearDown, consumed one per call.
	TearDownErrs map[string][]error

	// Unhealthy marks names whose Health check reports false.
	Unhealthy map[string]bool

	// OutputsFor overrides the default outputs for a name.
	OutputsFor map[string]provider.Outputs

	ensureCalls   map[string]int
	tearDownCalls map[string]int
	ensureOrder   []string
}

// New returns an empty fake provider.
func New() *Provider {
	return &Provider{
		resources:     make(map[string]provider.Outputs),
		EnsureErrs:    make(map[string][]error),
		TearDownErrs:  make(map[string][]error),
		Unhealthy:     make(map[string]bool),
		OutputsFor:    make(map[string]provider.Outputs),
		ensureCalls:   make(map[string]int),
		tearDownCalls: make(map[string]int),
	}
}

// FailEnsure scripts errs for successive Ensure calls on name.
func (p *Provider) FailEnsure(name string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EnsureErrs[name] = append(p.EnsureErrs[name], errs...)
}

// SetOutputs fixes the outputs Ensure reports for name.
func (p *Provider) SetOutputs(name string, outputs provider.Outputs) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.OutputsFor[name] = outputs
}

// Ensure records the call, consumes any scripted error, and otherwise
// stores the resource with its outputs.
func (p *Provider) Ensure(_ context.Context, req provider.Request) (provider.Outputs, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ensureCalls[req.Name]++
	p.ensureOrder = append(p.ensureOrder, req.Name)

	if errs := p.EnsureErrs[req.Name]; len(errs) > 0 {
		err := errs[0]
		p.EnsureErrs[req.Name] = errs[1:]
		if err != nil {
			return nil, err
		}
	}

	outputs, ok := p.OutputsFor[req.Name]
	if !ok {
		outputs = provider.Outputs{
			"id": fmt.Sprintf("%s-%s-id", req.Kind, req.Name),
		}
	}
	p.resources[req.Name] = outputs
	return outputs, nil
}

// TearDown records the call and removes the resource.
func (p *Provider) TearDown(_ context.Context, req provider.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tearDownCalls[req.Name]++
	if errs := p.TearDownErrs[req.Name]; len(errs) > 0 {
		err := errs[0]
		p.TearDownErrs[req.Name] = errs[1:]
		if err != nil {
			return err
		}
	}
	delete(p.resources, req.Name)
	return nil
}

// Health reports the scripted health for name, defaulting to healthy.
func (p *Provider) Health(_ context.Context, req provider.Request) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.Unhealthy[req.Name], nil
}

// EnsureCalls returns how many times Ensure ran for name.
func (p *Provider) EnsureCalls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureCalls[name]
}

// TearDownCalls returns how many times TearDown ran for name.
func (p *Provider) TearDownCalls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tearDownCalls[name]
}

// EnsureOrder returns the names in the order Ensure was called.
func (p *Provider) EnsureOrder() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.ensureOrder...)
}

// Exists reports whether the resource is currently provisioned.
func (p *Provider) Exists(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.resources[name]
	return ok
}
