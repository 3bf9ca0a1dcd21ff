package handlers

import (
	"context"
	"fmt"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/reconcile"
)

// ApplyOptions carries the apply command flags.
type ApplyOptions struct {
	ConfigPath string
	Workers    int
	Verbose    bool
}

// Apply converges the provider towards the specification.
//
// The workflow:
//  1. Load and validate the specification, build the resource graph
//  2. Open the configured state backend
//  3. Wire the cloud provider from HCLOUD_TOKEN
//  4. Reconcile: provision in dependency order with bounded concurrency
//  5. Render the per-resource outcome
//
// Apply returns an error unless every resource ends up applied, so the
// process exit status reflects convergence.
func Apply(ctx context.Context, opts ApplyOptions) error {
	doc, g, err := loadSpec(opts.ConfigPath)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, doc)
	if err != nil {
		return err
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	rOpts := []reconcile.Option{
		reconcile.WithLogger(buildLogger(opts.Verbose)),
		reconcile.WithMetrics(reconcileMetrics()),
	}
	if opts.Workers > 0 {
		rOpts = append(rOpts, reconcile.WithWorkers(opts.Workers))
	}

	r := reconcile.New(doc.Project, registry, store, rOpts...)
	report, err := r.Apply(ctx, g)
	if report != nil {
		fmt.Print(renderReport(doc.Project, "apply", report))
	}
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	if !report.AllIn(graph.StateApplied) {
		return fmt.Errorf("%d resource(s) failed to apply", len(report.Failed(graph.StateApplied)))
	}
	return nil
}
