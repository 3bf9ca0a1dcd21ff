package handlers

import (
	"context"
	"fmt"

	"github.com/gantry-sh/gantry/internal/reconcile"
)

// Plan previews the actions an apply run would take. It needs the state
// backend but makes no provider calls, so no cloud token is required.
func Plan(ctx context.Context, configPath string) error {
	doc, g, err := loadSpec(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, doc)
	if err != nil {
		return err
	}

	r := reconcile.New(doc.Project, nil, store)
	plan, err := r.Plan(ctx, g)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	fmt.Print(renderPlan(doc.Project, plan))
	return nil
}
