package handlers

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/gantry-sh/gantry/internal/spec"
)

var projectNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

// wizardResult holds all the answers from the interactive wizard.
type wizardResult struct {
	Project    string
	Location   string
	ServerType string

	ControlPlaneCount int

	WorkerCount int
	WorkerType  string

	Addons []string
}

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard runs the interactive wizard.
	runWizard = runInitWizard

	// writeSpecFile writes the generated document to a file.
	writeSpecFile = func(doc *spec.Document, path string) error {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o600)
	}
)

// Init runs the specification wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if fileExists(outputPath) {
		fmt.Printf("Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	doc := buildDocument(result)
	if err := writeSpecFile(doc, outputPath); err != nil {
		return fmt.Errorf("failed to write specification: %w", err)
	}

	printInitSuccess(outputPath, result)
	return nil
}

func runInitWizard(ctx context.Context) (*wizardResult, error) {
	result := &wizardResult{
		Location:          "fsn1",
		ServerType:        "cx32",
		ControlPlaneCount: 3,
		WorkerType:        "cx32",
		WorkerCount:       3,
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project Name").
				Description("1-32 lowercase alphanumeric characters or hyphens").
				Placeholder("my-project").
				Value(&result.Project).
				Validate(validateProjectName),
			huh.NewSelect[string]().
				Title("Location").
				Description("Hetzner Cloud datacenter").
				Options(
					huh.NewOption("Falkenstein (Germany)", "fsn1"),
					huh.NewOption("Nuremberg (Germany)", "nbg1"),
					huh.NewOption("Helsinki (Finland)", "hel1"),
					huh.NewOption("Ashburn (USA)", "ash"),
					huh.NewOption("Hillsboro (USA)", "hil"),
				).
				Value(&result.Location),
		).Title("Project"),

		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Control Plane Nodes").
				Options(
					huh.NewOption("1 (Development only)", 1),
					huh.NewOption("3 (Recommended for HA)", 3),
					huh.NewOption("5 (Large clusters)", 5),
				).
				Value(&result.ControlPlaneCount),
			huh.NewSelect[string]().
				Title("Control Plane Server Type").
				Options(serverTypeOptions()...).
				Value(&result.ServerType),
		).Title("Control Plane"),

		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Worker Nodes").
				Options(
					huh.NewOption("1", 1),
					huh.NewOption("2", 2),
					huh.NewOption("3", 3),
					huh.NewOption("5", 5),
					huh.NewOption("10", 10),
				).
				Value(&result.WorkerCount),
			huh.NewSelect[string]().
				Title("Worker Server Type").
				Options(serverTypeOptions()...).
				Value(&result.WorkerType),
		).Title("Workers"),

		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Addons").
				Description("Charts installed after the cluster is up").
				Options(
					huh.NewOption("Metrics Server", "metrics-server").Selected(true),
					huh.NewOption("CSI Driver", "csi-driver").Selected(true),
					huh.NewOption("Ingress NGINX", "ingress-nginx"),
					huh.NewOption("Cert Manager", "cert-manager"),
					huh.NewOption("External DNS", "external-dns"),
					huh.NewOption("Cluster Autoscaler", "cluster-autoscaler"),
				).
				Value(&result.Addons),
		).Title("Addons"),
	).RunWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func serverTypeOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("cx22 (2 vCPU, 4 GB)", "cx22"),
		huh.NewOption("cx32 (4 vCPU, 8 GB)", "cx32"),
		huh.NewOption("cx42 (8 vCPU, 16 GB)", "cx42"),
		huh.NewOption("cx52 (16 vCPU, 32 GB)", "cx52"),
	}
}

func validateProjectName(name string) error {
	if !projectNameRegex.MatchString(name) {
		return fmt.Errorf("must be 1-32 lowercase alphanumeric characters or hyphens")
	}
	return nil
}

// buildDocument expands the wizard answers into a full specification:
// network, access role, cluster, worker group and the selected addons,
// wired together through output references.
func buildDocument(result *wizardResult) *spec.Document {
	resources := []spec.Resource{
		{
			Name: "net",
			Kind: "Network",
			Config: map[string]any{
				"cidr": "10.0.0.0/16",
			},
		},
		{
			Name: "ops",
			Kind: "Role",
		},
		{
			Name: "control-plane",
			Kind: "Cluster",
			Config: map[string]any{
				"networkId":         "${net.id}",
				"sshKeyId":          "${ops.id}",
				"location":          result.Location,
				"serverType":        result.ServerType,
				"controlPlaneCount": result.ControlPlaneCount,
			},
		},
		{
			Name: "workers",
			Kind: "NodeGroup",
			Config: map[string]any{
				"networkId":  "${net.id}",
				"sshKeyId":   "${ops.id}",
				"location":   result.Location,
				"serverType": result.WorkerType,
				"count":      result.WorkerCount,
			},
		},
	}

	for _, name := range result.Addons {
		resources = append(resources, spec.Resource{
			Name:      name,
			Kind:      "Addon",
			DependsOn: []string{"control-plane", "workers"},
			Config: map[string]any{
				"chart":          name,
				"kubeconfigPath": "kubeconfig",
			},
		})
	}

	return &spec.Document{
		Project: result.Project,
		State: spec.StateConfig{
			Backend: "local",
			Path:    ".gantry/state",
		},
		Resources: resources,
	}
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("gantry - declarative cluster provisioning")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Println("This wizard creates a specification with sensible defaults.")
	fmt.Println("Edit the generated YAML to fine-tune resources afterwards.")
	fmt.Println()
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, result *wizardResult) {
	fmt.Println()
	fmt.Println("Specification saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()
	fmt.Println("Project Summary")
	fmt.Println("---------------")
	fmt.Printf("  Name:           %s\n", result.Project)
	fmt.Printf("  Location:       %s\n", result.Location)
	fmt.Printf("  Control Planes: %d x %s\n", result.ControlPlaneCount, result.ServerType)
	fmt.Printf("  Workers:        %d x %s\n", result.WorkerCount, result.WorkerType)
	if len(result.Addons) > 0 {
		fmt.Printf("  Addons:         %v\n", result.Addons)
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. export HCLOUD_TOKEN=<your token>\n")
	fmt.Printf("  2. gantry plan -c %s\n", outputPath)
	fmt.Printf("  3. gantry apply -c %s\n", outputPath)
}
