package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRefs(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ParseRefs("no refs here"))

	refs := ParseRefs("${net.id}")
	require.Len(t, refs, 1)
	assert.Equal(t, Ref{Node: "net", Attr: "id"}, refs[0])

	refs = ParseRefs("https://${lb.host}:${lb.port}/api")
	require.Len(t, refs, 2)
	assert.Equal(t, Ref{Node: "lb", Attr: "host"}, refs[0])
	assert.Equal(t, Ref{Node: "lb", Attr: "port"}, refs[1])

	// Dotted attribute paths descend into nested outputs.
	refs = ParseRefs("${cluster.endpoints.public}")
	require.Len(t, refs, 1)
	assert.Equal(t, Ref{Node: "cluster", Attr: "endpoints.public"}, refs[0])
}

func TestConfigRefs_WalksNestedValues(t *testing.T) {
	t.Parallel()

	cfg := map[string]any{
		"plain":   "value",
		"ref":     "${a.id}",
		"number":  3,
		"nested":  map[string]any{"inner": "${b.id}"},
		"listing": []any{"${c.id}", map[string]any{"deep": "${d.id}"}},
	}

	refs := ConfigRefs(cfg)
	nodes := make(map[string]bool)
	for _, r := range refs {
		nodes[r.Node] = true
	}
	assert.Len(t, refs, 4)
	for _, want := range []string{"a", "b", "c", "d"} {
		assert.True(t, nodes[want], "missing ref to %s", want)
	}
}

func TestSubstitute_WholeStringKeepsType(t *testing.T) {
	t.Parallel()

	lookup := func(node, attr string) (any, bool) {
		if node == "group" && attr == "count" {
			return 3, true
		}
		return nil, false
	}

	v, err := Substitute("${group.count}", lookup)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestSubstitute_Interpolates(t *testing.T) {
	t.Parallel()

	lookup := func(node, attr string) (any, bool) {
		switch node + "." + attr {
		case "lb.host":
			return "10.0.0.5", true
		case "lb.port":
			return 6443, true
		}
		return nil, false
	}

	v, err := Substitute("https://${lb.host}:${lb.port}", lookup)
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.5:6443", v)
}

func TestSubstitute_UnresolvedReference(t *testing.T) {
	t.Parallel()

	lookup := func(string, string) (any, bool) { return nil, false }

	_, err := Substitute("${ghost.id}", lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved reference ${ghost.id}")

	_, err = Substitute("prefix-${ghost.id}", lookup)
	assert.Error(t, err)
}

func TestSubstitute_NoRefsPassthrough(t *testing.T) {
	t.Parallel()

	v, err := Substitute("just a string", func(string, string) (any, bool) { return nil, true })
	require.NoError(t, err)
	assert.Equal(t, "just a string", v)
}
