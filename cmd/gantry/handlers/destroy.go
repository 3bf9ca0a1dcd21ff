package handlers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/reconcile"
)

// DestroyOptions carries the destroy command flags.
type DestroyOptions struct {
	ConfigPath string
	Yes        bool
	Workers    int
	Verbose    bool
}

// confirmDestroy asks for confirmation before tearing down. Replaced in
// tests.
var confirmDestroy = func(project string) (bool, error) {
	if !isInteractiveTTY() {
		return false, fmt.Errorf("refusing to destroy %q without a terminal; pass --yes to proceed", project)
	}
	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Destroy all resources of project %q?", project)).
				Description("This deletes the provisioned infrastructure. It cannot be undone.").
				Affirmative("Destroy").
				Negative("Cancel").
				Value(&confirmed),
		),
	).Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// Destroy tears down every declared resource in reverse dependency
// order and deletes the state records as resources disappear.
func Destroy(ctx context.Context, opts DestroyOptions) error {
	doc, g, err := loadSpec(opts.ConfigPath)
	if err != nil {
		return err
	}

	if !opts.Yes {
		ok, err := confirmDestroy(doc.Project)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Destroy cancelled.")
			return nil
		}
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
	report, err := r.Destroy(ctx, g)
	if report != nil {
		fmt.Print(renderReport(doc.Project, "destroy", report))
	}
	if err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}
	if !report.AllIn(graph.StateDeleted) {
		return fmt.Errorf("%d resource(s) failed to delete", len(report.Failed(graph.StateDeleted)))
	}
	return nil
}
