package spatial

import (
	"testing"

	"lintang/routex/pkg/datastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func graphOf(t *testing.T, nodes []datastructure.Node) *datastructure.Graph {
	t.Helper()
	g, err := datastructure.NewGraph("test", 1, nodes, nil, nil)
	require.NoError(t, err)
	return g
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	nodes := make([]datastructure.Node, 0, 3000)
	for i := 0; i < 3000; i++ {
		lat := 52.1 + rng.Float64()*0.2
		lon := 20.9 + rng.Float64()*0.3
		nodes = append(nodes, datastructure.NewNode(datastructure.NodeID(i+1), lat, lon))
	}
	idx := NewIndex(graphOf(t, nodes))
	assert.Equal(t, 3000, idx.Size())

	for i := 0; i < 500; i++ {
		lat := 52.05 + rng.Float64()*0.3
		lon := 20.85 + rng.Float64()*0.4

		got, err := idx.Nearest(lat, lon)
		require.NoError(t, err)
		want, err := idx.NearestBruteForce(lat, lon)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNearestExactHit(t *testing.T) {
	idx := NewIndex(graphOf(t, []datastructure.Node{
		datastructure.NewNode(10, 0.0, 0.0),
		datastructure.NewNode(20, 0.0, 0.001),
		datastructure.NewNode(30, 0.001, 0.001),
	}))

	id, err := idx.Nearest(0.001, 0.001)
	require.NoError(t, err)
	assert.Equal(t, datastructure.NodeID(30), id)

	id, err = idx.Nearest(0.0, 0.0004)
	require.NoError(t, err)
	assert.Equal(t, datastructure.NodeID(10), id)
}

func TestNearestTieBreaksOnLowestID(t *testing.T) {
	// 70 nodes forces the bulk loaded tree, all sitting on two points
	nodes := []datastructure.Node{}
	for i := 70; i > 0; i-- {
		lon := 0.001
		if i%2 == 0 {
			lon = -0.001
		}
		nodes = append(nodes, datastructure.NewNode(datastructure.NodeID(i), 0, lon))
	}
	idx := NewIndex(graphOf(t, nodes))

	id, err := idx.Nearest(0, 0)
	require.NoError(t, err)
	assert.Equal(t, datastructure.NodeID(1), id)

	id, err = idx.Nearest(0, -0.0009)
	require.NoError(t, err)
	assert.Equal(t, datastructure.NodeID(2), id)
}

func TestNearestEmpty(t *testing.T) {
	idx := NewIndex(graphOf(t, nil))

	_, err := idx.Nearest(1, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)
	_, err = idx.NearestBruteForce(1, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}
