package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSpec = `
project: demo
resources:
  - name: net
    kind: Network
    config:
      cidr: 10.0.0.0/16
  - name: cluster
    kind: Cluster
    dependsOn: [net]
    config:
      networkId: ${net.id}
      controlPlaneCount: 3
`

func TestParse_Minimal(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(minimalSpec))
	require.NoError(t, err)

	assert.Equal(t, "demo", doc.Project)
	require.Len(t, doc.Resources, 2)
	assert.Equal(t, "net", doc.Resources[0].Name)
	assert.Equal(t, []string{"net"}, doc.Resources[1].DependsOn)
	assert.Equal(t, "${net.id}", doc.Resources[1].Config["networkId"])
	assert.Equal(t, 3, doc.Resources[1].Config["controlPlaneCount"])
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(minimalSpec))
	require.NoError(t, err)

	assert.Equal(t, "local", doc.State.Backend)
	assert.Equal(t, ".gantry/state", doc.State.Path)
	assert.Equal(t, "state", doc.State.S3.Prefix)
}

func TestParse_S3Backend(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
project: demo
state:
  backend: s3
  s3:
    bucket: demo-state
    region: eu-central-1
resources:
  - name: net
    kind: Network
`))
	require.NoError(t, err)
	assert.Equal(t, "s3", doc.State.Backend)
	assert.Equal(t, "demo-state", doc.State.S3.Bucket)
}

func TestParse_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("project: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
	}{
		{"missing project", `
resources:
  - name: net
    kind: Network
`},
		{"bad project name", `
project: Not_Valid
resources:
  - name: net
    kind: Network
`},
		{"no resources", `
project: demo
resources: []
`},
		{"missing resource name", `
project: demo
resources:
  - kind: Network
`},
		{"bad resource name", `
project: demo
resources:
  - name: Caps_Name
    kind: Network
`},
		{"duplicate names", `
project: demo
resources:
  - name: net
    kind: Network
  - name: net
    kind: Role
`},
		{"missing kind", `
project: demo
resources:
  - name: net
`},
		{"unknown backend", `
project: demo
state:
  backend: etcd
resources:
  - name: net
    kind: Network
`},
		{"s3 without bucket", `
project: demo
state:
  backend: s3
resources:
  - name: net
    kind: Network
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "gantry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalSpec), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", doc.Project)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
