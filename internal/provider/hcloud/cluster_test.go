package hcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/provider"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("not-a-number")
	assert.Error(t, err)

	_, err = parseID("")
	assert.Error(t, err)
}

func TestLabelSelector(t *testing.T) {
	t.Parallel()

	sel := labelSelector(map[string]string{
		LabelProject:   "demo",
		LabelManagedBy: managedByValue,
		LabelResource:  "cp",
	})
	assert.Equal(t,
		"gantry.sh/managed-by=gantry,gantry.sh/project=demo,gantry.sh/resource=cp",
		sel)
}

func TestLabels_FreshMapPerRequest(t *testing.T) {
	t.Parallel()

	req := provider.Request{Project: "demo", Name: "cp", Kind: graph.KindCluster}
	a := labels(req)
	a[roleLabel] = "control-plane"

	b := labels(req)
	assert.NotContains(t, b, roleLabel)
	assert.Equal(t, "demo", b[LabelProject])
}

func TestClusterConfigDefaults(t *testing.T) {
	t.Parallel()

	var cfg clusterConfig
	require.NoError(t, provider.DecodeConfig(map[string]any{
		"networkId": "1",
		"sshKeyId":  "2",
	}, &cfg))
	cfg.applyDefaults()

	assert.Equal(t, "fsn1", cfg.Location)
	assert.Equal(t, "cx22", cfg.ServerType)
	assert.Equal(t, "ubuntu-24.04", cfg.Image)
	assert.Equal(t, 1, cfg.ControlPlaneCount)
	assert.Equal(t, "lb11", cfg.LoadBalancerType)
	assert.Equal(t, 6443, cfg.APIPort)
}
