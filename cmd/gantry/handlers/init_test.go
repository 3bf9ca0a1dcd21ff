package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/spec"
)

func TestInit_WritesWizardDocument(t *testing.T) {
	result := &wizardResult{
		Project:           "demo",
		Location:          "nbg1",
		ServerType:        "cx32",
		ControlPlaneCount: 3,
		WorkerCount:       2,
		WorkerType:        "cx22",
		Addons:            []string{"metrics-server", "csi-driver"},
	}

	var written *spec.Document
	var writtenPath string

	origExists, origWizard, origWrite := fileExists, runWizard, writeSpecFile
	fileExists = func(string) bool { return false }
	runWizard = func(context.Context) (*wizardResult, error) { return result, nil }
	writeSpecFile = func(doc *spec.Document, path string) error {
		written = doc
		writtenPath = path
		return nil
	}
	t.Cleanup(func() {
		fileExists, runWizard, writeSpecFile = origExists, origWizard, origWrite
	})

	require.NoError(t, Init(context.Background(), "gantry.yaml"))
	require.NotNil(t, written)
	assert.Equal(t, "gantry.yaml", writtenPath)
	assert.Equal(t, "demo", written.Project)
	assert.Equal(t, "local", written.State.Backend)
	assert.Len(t, written.Resources, 6)
}

func TestBuildDocument_IsValidAndAcyclic(t *testing.T) {
	t.Parallel()

	doc := buildDocument(&wizardResult{
		Project:           "demo",
		Location:          "fsn1",
		ServerType:        "cx32",
		ControlPlaneCount: 1,
		WorkerCount:       3,
		WorkerType:        "cx32",
		Addons:            []string{"cert-manager"},
	})
	require.NoError(t, doc.Validate())

	g, err := graph.Build(doc)
	require.NoError(t, err)

	// The cluster picks up the network and role through output references.
	cp, ok := g.Nodes["control-plane"]
	require.True(t, ok)
	assert.Contains(t, cp.DependsOn, "net")
	assert.Contains(t, cp.DependsOn, "ops")

	addon, ok := g.Nodes["cert-manager"]
	require.True(t, ok)
	assert.Contains(t, addon.DependsOn, "control-plane")
	assert.Contains(t, addon.DependsOn, "workers")
}

func TestValidateProjectName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateProjectName("demo"))
	assert.NoError(t, validateProjectName("my-project-1"))
	assert.Error(t, validateProjectName(""))
	assert.Error(t, validateProjectName("Uppercase"))
	assert.Error(t, validateProjectName("-leading"))
	assert.Error(t, validateProjectName("trailing-"))
}
