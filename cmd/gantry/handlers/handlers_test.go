package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/provider"
	"github.com/gantry-sh/gantry/internal/provider/fake"
	"github.com/gantry-sh/gantry/internal/state"
)

// writeSpec writes a two-resource specification whose state directory
// lives under the test's temp dir and returns its path.
func writeSpec(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	doc := fmt.Sprintf(`project: demo
state:
  backend: local
  path: %s
resources:
  - name: net
    kind: Network
    config:
      cidr: 10.0.0.0/16
  - name: cp
    kind: Cluster
    config:
      networkId: ${net.id}
`, filepath.Join(dir, "state"))

	path := filepath.Join(dir, "gantry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

// withFakeCloud routes provider calls to an in-memory fake and stubs the
// cloud token, restoring everything when the test finishes.
func withFakeCloud(t *testing.T) *fake.Provider {
	t.Helper()
	p := fake.New()

	origRegistry := newCloudRegistry
	newCloudRegistry = func(string) *provider.Registry {
		reg := provider.NewRegistry()
		for _, kind := range []graph.Kind{graph.KindNetwork, graph.KindRole, graph.KindCluster, graph.KindNodeGroup, graph.KindAddon} {
			reg.Register(kind, p)
		}
		return reg
	}
	origGetenv := getenv
	getenv = func(key string) string {
		if key == "HCLOUD_TOKEN" {
			return "test-token"
		}
		return ""
	}
	t.Cleanup(func() {
		newCloudRegistry = origRegistry
		getenv = origGetenv
	})
	return p
}

func TestApply(t *testing.T) {
	p := withFakeCloud(t)
	path := writeSpec(t)

	require.NoError(t, Apply(context.Background(), ApplyOptions{ConfigPath: path}))

	assert.Equal(t, 1, p.EnsureCalls("net"))
	assert.Equal(t, 1, p.EnsureCalls("cp"))
	assert.Equal(t, []string{"net", "cp"}, p.EnsureOrder())
}

func TestApply_FailureIsAnError(t *testing.T) {
	p := withFakeCloud(t)
	p.FailEnsure("net", provider.Permanentf("quota exceeded"))
	path := writeSpec(t)

	err := Apply(context.Background(), ApplyOptions{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply")
}

func TestApply_RegistersMetrics(t *testing.T) {
	withFakeCloud(t)

	require.NoError(t, Apply(context.Background(), ApplyOptions{ConfigPath: writeSpec(t)}))

	// The reconciliation counters end up on the default registry.
	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "gantry_ensure_calls_total")
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestApply_MissingToken(t *testing.T) {
	origGetenv := getenv
	getenv = func(string) string { return "" }
	t.Cleanup(func() { getenv = origGetenv })

	err := Apply(context.Background(), ApplyOptions{ConfigPath: writeSpec(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCLOUD_TOKEN")
}

func TestApply_MissingSpecFile(t *testing.T) {
	withFakeCloud(t)

	err := Apply(context.Background(), ApplyOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestPlan_NeedsNoToken(t *testing.T) {
	origGetenv := getenv
	getenv = func(string) string { return "" }
	t.Cleanup(func() { getenv = origGetenv })

	require.NoError(t, Plan(context.Background(), writeSpec(t)))
}

func TestStatus(t *testing.T) {
	p := withFakeCloud(t)
	path := writeSpec(t)

	require.NoError(t, Status(context.Background(), path, false))

	require.NoError(t, Apply(context.Background(), ApplyOptions{ConfigPath: path}))
	assert.True(t, p.Exists("net"))
	require.NoError(t, Status(context.Background(), path, true))
}

func TestDestroy_WithYes(t *testing.T) {
	p := withFakeCloud(t)
	path := writeSpec(t)

	require.NoError(t, Apply(context.Background(), ApplyOptions{ConfigPath: path}))
	require.NoError(t, Destroy(context.Background(), DestroyOptions{ConfigPath: path, Yes: true}))

	assert.False(t, p.Exists("net"))
	assert.False(t, p.Exists("cp"))
	assert.Equal(t, 1, p.TearDownCalls("cp"))
}

func TestDestroy_Declined(t *testing.T) {
	p := withFakeCloud(t)
	path := writeSpec(t)

	origConfirm := confirmDestroy
	confirmDestroy = func(string) (bool, error) { return false, nil }
	t.Cleanup(func() { confirmDestroy = origConfirm })

	require.NoError(t, Apply(context.Background(), ApplyOptions{ConfigPath: path}))
	require.NoError(t, Destroy(context.Background(), DestroyOptions{ConfigPath: path}))

	assert.True(t, p.Exists("net"))
	assert.Equal(t, 0, p.TearDownCalls("net"))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	dir := t.TempDir()
	doc := `project: demo
state:
  backend: etcd
resources:
  - name: net
    kind: Network
`
	path := filepath.Join(dir, "gantry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	err := Apply(context.Background(), ApplyOptions{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown state backend")
}

func TestOpenStore_S3CollectsCredentials(t *testing.T) {
	var got state.S3Options
	origS3 := newS3Store
	newS3Store = func(_ context.Context, opts state.S3Options) (state.Store, error) {
		got = opts
		return state.NewMemoryStore(), nil
	}
	origGetenv := getenv
	getenv = func(key string) string {
		switch key {
		case "AWS_ACCESS_KEY_ID":
			return "ak"
		case "AWS_SECRET_ACCESS_KEY":
			return "sk"
		}
		return ""
	}
	t.Cleanup(func() {
		newS3Store = origS3
		getenv = origGetenv
	})

	dir := t.TempDir()
	doc := `project: demo
state:
  backend: s3
  s3:
    endpoint: https://fsn1.your-objectstorage.com
    region: fsn1
    bucket: demo-state
resources:
  - name: net
    kind: Network
`
	path := filepath.Join(dir, "gantry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	require.NoError(t, Plan(context.Background(), path))
	assert.Equal(t, "demo-state", got.Bucket)
	assert.Equal(t, "ak", got.AccessKey)
	assert.Equal(t, "sk", got.SecretKey)
}
