package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStronglyConnectedComponents(t *testing.T) {
	nodes := []Node{
		NewNode(10, 0, 0),
		NewNode(11, 0, 0.001),
		NewNode(12, 0, 0.002),
		NewNode(13, 0, 0.003),
		NewNode(14, 0, 0.004),
		NewNode(15, 0, 0.005),
	}
	// 10 -> 11 -> 14 -> 10 cycle, 11 -> 12 <-> 13, 15 isolated by direction
	edges := []Edge{
		{From: 10, To: 11, Cost: 1, Length: 1},
		{From: 11, To: 12, Cost: 1, Length: 1},
		{From: 11, To: 14, Cost: 1, Length: 1},
		{From: 12, To: 13, Cost: 1, Length: 1},
		{From: 13, To: 12, Cost: 1, Length: 1},
		{From: 14, To: 10, Cost: 1, Length: 1},
		{From: 14, To: 15, Cost: 1, Length: 1},
	}
	g, err := NewGraph("test", 1, nodes, edges, nil)
	require.NoError(t, err)

	scc := g.StronglyConnectedComponents()
	require.Len(t, scc, 3)
	assert.Equal(t, []NodeID{10, 11, 14}, scc[0])
	assert.Equal(t, []NodeID{12, 13}, scc[1])
	assert.Equal(t, []NodeID{15}, scc[2])
}

func TestStronglyConnectedComponentsLongChain(t *testing.T) {
	// a two way chain long enough to break a recursive dfs
	const n = 200000
	nodes := make([]Node, n)
	edges := make([]Edge, 0, 2*n)
	for i := 0; i < n; i++ {
		nodes[i] = NewNode(NodeID(i+1), 0, float64(i)*1e-5)
		if i > 0 {
			edges = append(edges,
				Edge{From: NodeID(i), To: NodeID(i + 1), Cost: 1, Length: 1},
				Edge{From: NodeID(i + 1), To: NodeID(i), Cost: 1, Length: 1})
		}
	}
	g, err := NewGraph("chain", 1, nodes, edges, nil)
	require.NoError(t, err)

	scc := g.StronglyConnectedComponents()
	require.Len(t, scc, 1)
	assert.Len(t, scc[0], n)
}
