package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(name string, kind Kind) *Node {
	return &Node{Name: name, Kind: kind}
}

func mustAdd(t *testing.T, g *Graph, nodes ...*Node) {
	t.Helper()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
}

func TestAddNode_Duplicate(t *testing.T) {
	t.Parallel()
	g := New()
	mustAdd(t, g, node("a", KindNetwork))

	err := g.AddNode(node("a", KindRole))
	assert.Error(t, err)
}

func TestAddDependencies_SelfReference(t *testing.T) {
	t.Parallel()
	g := New()
	mustAdd(t, g, node("a", KindNetwork))

	err := g.AddDependencies("a", []string{"a"})
	assert.Error(t, err)
}

func TestAddDependencies_UnknownNode(t *testing.T) {
	t.Parallel()
	g := New()
	mustAdd(t, g, node("a", KindNetwork))

	err := g.AddDependencies("a", []string{"missing"})
	assert.Error(t, err)
}

func TestAddDependencies_RejectsCycle(t *testing.T) {
	t.Parallel()
	g := New()
	mustAdd(t, g, node("a", KindNetwork), node("b", KindCluster), node("c", KindAddon))

	require.NoError(t, g.AddDependencies("b", []string{"a"}))
	require.NoError(t, g.AddDependencies("c", []string{"b"}))

	err := g.AddDependencies("a", []string{"c"})
	require.Error(t, err)

	ce := AsCyclicDependencyError(err)
	require.NotNil(t, ce)
	assert.GreaterOrEqual(t, len(ce.Cycle), 3)
	assert.Equal(t, ce.Cycle[0], ce.Cycle[len(ce.Cycle)-1])

	// The rejected edge must not linger.
	_, hasEdge := g.Nodes["a"].DependsOn["c"]
	assert.False(t, hasEdge)
	_, sortErr := g.TopologicalSort()
	assert.NoError(t, sortErr)
}

func TestTopologicalSort_RespectsDependencies(t *testing.T) {
	t.Parallel()
	g := New()
	mustAdd(t, g,
		node("net", KindNetwork),
		node("role", KindRole),
		node("cluster", KindCluster),
		node("workers", KindNodeGroup),
		node("dns", KindAddon),
	)
	require.NoError(t, g.AddDependencies("cluster", []string{"net", "role"}))
	require.NoError(t, g.AddDependencies("workers", []string{"cluster"}))
	require.NoError(t, g.AddDependencies("dns", []string{"cluster", "workers"}))

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, 5)

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	for _, n := range g.Nodes {
		for dep := range n.DependsOn {
			assert.Less(t, pos[dep], pos[n.Name], "%s must come after %s", n.Name, dep)
		}
	}
}

func TestTopologicalSort_Deterministic(t *testing.T) {
	t.Parallel()
	build := func() *Graph {
		g := New()
		mustAdd(t, g, node("c", KindAddon), node("a", KindNetwork), node("b", KindRole))
		return g
	}

	first, err := build().TopologicalSort()
	require.NoError(t, err)
	for range 10 {
		again, err := build().TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// Independent nodes come out lexicographically.
	assert.Equal(t, []string{"a", "b", "c"}, first)
}

func TestReverseTopologicalSort(t *testing.T) {
	t.Parallel()
	g := New()
	mustAdd(t, g, node("a", KindNetwork), node("b", KindCluster))
	require.NoError(t, g.AddDependencies("b", []string{"a"}))

	order, err := g.ReverseTopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestDependents(t *testing.T) {
	t.Parallel()
	g := New()
	mustAdd(t, g, node("a", KindNetwork), node("b", KindCluster), node("c", KindNodeGroup))
	require.NoError(t, g.AddDependencies("b", []string{"a"}))
	require.NoError(t, g.AddDependencies("c", []string{"a"}))

	assert.Equal(t, []string{"b", "c"}, g.Dependents("a"))
	assert.Empty(t, g.Dependents("b"))
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	for _, valid := range []string{"Network", "Role", "Cluster", "NodeGroup", "Addon"} {
		k, err := ParseKind(valid)
		require.NoError(t, err)
		assert.Equal(t, Kind(valid), k)
	}

	_, err := ParseKind("Pod")
	assert.Error(t, err)
}

func TestStateTerminal(t *testing.T) {
	t.Parallel()
	assert.True(t, StateApplied.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateDeleted.Terminal())
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateApplying.Terminal())
	assert.False(t, StateDeleting.Terminal())
}
