package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/gantry-sh/gantry/internal/graph"
)

// Status prints the recorded state of every declared resource.
func Status(ctx context.Context, configPath string, showOutputs bool) error {
	doc, g, err := loadSpec(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, doc)
	if err != nil {
		return err
	}

	records, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	declared := make([]string, 0, len(g.Nodes))
	kinds := make(map[string]graph.Kind, len(g.Nodes))
	for name, n := range g.Nodes {
		declared = append(declared, name)
		kinds[name] = n.Kind
	}
	sort.Strings(declared)

	fmt.Print(renderStatus(doc.Project, declared, kinds, records, showOutputs))
	return nil
}
