package handlers

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/reconcile"
	"github.com/gantry-sh/gantry/internal/state"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorYellow = lipgloss.Color("#eab308")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	greenStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	redStyle     = lipgloss.NewStyle().Foreground(colorRed)
	yellowStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func stateStyle(s graph.State) lipgloss.Style {
	switch s {
	case graph.StateApplied, graph.StateDeleted:
		return greenStyle
	case graph.StateFailed:
		return redStyle
	case graph.StateApplying, graph.StateDeleting:
		return yellowStyle
	default:
		return dimStyle
	}
}

// renderReport produces a styled summary of a reconciliation run.
func renderReport(project, verb string, report *reconcile.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  gantry %s: %s", verb, project)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	for _, res := range report.Results {
		line := fmt.Sprintf("  %-24s %-10s %s", res.Name, res.Kind, stateStyle(res.State).Render(string(res.State)))
		b.WriteString(line)
		b.WriteString("\n")
		if res.Err != nil {
			b.WriteString(redStyle.Render("    " + res.Err.Error()))
			b.WriteString("\n")
		}
	}

	counts := make(map[graph.State]int)
	for _, res := range report.Results {
		counts[res.State]++
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d resources, %d applied, %d failed, %d deleted",
		len(report.Results), counts[graph.StateApplied], counts[graph.StateFailed], counts[graph.StateDeleted])))
	b.WriteString("\n")

	return b.String()
}

func actionStyle(a reconcile.Action) lipgloss.Style {
	switch a {
	case reconcile.ActionCreate:
		return greenStyle
	case reconcile.ActionUpdate:
		return yellowStyle
	case reconcile.ActionDelete:
		return redStyle
	default:
		return dimStyle
	}
}

// renderPlan produces a styled listing of planned actions.
func renderPlan(project string, plan *reconcile.PlanResult) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  gantry plan: " + project))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	for _, step := range plan.Steps {
		b.WriteString(fmt.Sprintf("  %-8s %-24s %-10s",
			actionStyle(step.Action).Render(string(step.Action)), step.Name, step.Kind))
		if step.Reason != "" {
			b.WriteString(dimStyle.Render("  " + step.Reason))
		}
		b.WriteString("\n")
	}

	summary := plan.Summary()
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d to create, %d to update, %d to delete, %d unchanged",
		summary[reconcile.ActionCreate], summary[reconcile.ActionUpdate],
		summary[reconcile.ActionDelete], summary[reconcile.ActionNoop])))
	b.WriteString("\n")

	return b.String()
}

// renderStatus produces a styled listing of recorded state. Declared
// resources without a record are shown as pending.
func renderStatus(project string, declared []string, kinds map[string]graph.Kind, records map[string]state.Record, showOutputs bool) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  gantry status: " + project))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-24s %-10s %-10s %s", "Resource", "Kind", "State", "Updated")))
	b.WriteString("\n")

	for _, name := range declared {
		rec, ok := records[name]
		if !ok {
			b.WriteString(fmt.Sprintf("  %-24s %-10s %s\n", name, kinds[name], dimStyle.Render("Pending")))
			continue
		}
		b.WriteString(fmt.Sprintf("  %-24s %-10s %-10s %s\n",
			name, rec.Kind,
			stateStyle(rec.State).Render(string(rec.State)),
			dimStyle.Render(rec.UpdatedAt.Format(time.RFC3339))))
		if rec.LastError != "" {
			b.WriteString(redStyle.Render("    " + rec.LastError))
			b.WriteString("\n")
		}
		if showOutputs && len(rec.Outputs) > 0 {
			keys := make([]string, 0, len(rec.Outputs))
			for k := range rec.Outputs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				b.WriteString(dimStyle.Render(fmt.Sprintf("    %s = %v", k, rec.Outputs[k])))
				b.WriteString("\n")
			}
		}
	}

	orphans := make([]string, 0)
	declaredSet := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		declaredSet[name] = struct{}{}
	}
	for name := range records {
		if _, ok := declaredSet[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	if len(orphans) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("  Not declared"))
		b.WriteString("\n")
		for _, name := range orphans {
			rec := records[name]
			b.WriteString(fmt.Sprintf("  %-24s %-10s %s\n", name, rec.Kind, yellowStyle.Render(string(rec.State))))
		}
	}

	return b.String()
}
