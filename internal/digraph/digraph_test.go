package digraph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func sorted(xs []int) []int {
	out := append([]int(nil), xs...)
	sort.Ints(out)
	return out
}

func TestAddEdgeImplicitNodes(t *testing.T) {
	g := New[int]()
	g.AddEdge(1, 2)

	require.True(t, g.ContainsNode(1))
	require.True(t, g.ContainsNode(2))
	require.Equal(t, []int{2}, g.Outgoing(1))
	require.Equal(t, []int{1}, g.Incoming(2))
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	g := New[int]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 2)

	g.RemoveNode(2)

	require.False(t, g.ContainsNode(2))
	require.Empty(t, g.Outgoing(1))
	require.Empty(t, g.Incoming(3))
	require.True(t, g.ContainsNode(3))
}

func TestBFSIncludesSeedAndIsReachableOnly(t *testing.T) {
	g := New[int]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddNode(4) // unreachable from 1

	require.Equal(t, []int{1, 2, 3}, sorted(g.BFS(1)))
}

func TestBFSOnUnknownNodeReturnsJustSeed(t *testing.T) {
	g := New[int]()
	require.Equal(t, []int{42}, g.BFS(42))
}

func TestRemoveEdgeIsIdempotent(t *testing.T) {
	g := New[int]()
	g.AddEdge(1, 2)
	g.RemoveEdge(1, 2)
	g.RemoveEdge(1, 2)

	require.Empty(t, g.Outgoing(1))
}

func TestCyclesAreAllowed(t *testing.T) {
	g := New[int]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)

	require.Equal(t, []int{1, 2}, sorted(g.BFS(1)))
}
