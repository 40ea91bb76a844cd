package spatial

import (
	"errors"
	"math"

	"lintang/routex/pkg/datastructure"
	"lintang/routex/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

var ErrEmptyIndex = errors.New("nearest node query on empty index")

const (
	pointTolerance = 0.001 // meter, rtreego needs boxes with positive size
	minChildren    = 25
	maxChildren    = 50
)

type indexedNode struct {
	id   datastructure.NodeID
	x, y float64
}

func (n *indexedNode) Bounds() rtreego.Rect {
	return rtreego.Point{n.x, n.y}.ToRect(pointTolerance)
}

// Index answers nearest node queries over the nodes of one graph. Coordinates are
// projected with an equirectangular projection centered on the mean latitude of the
// graph, distances are euclidean in that plane. Built once, read only afterwards.
type Index struct {
	tree  *rtreego.Rtree
	proj  geo.Equirectangular
	nodes []*indexedNode
}

func NewIndex(g *datastructure.Graph) *Index {
	nodes := g.Nodes()

	refLat := 0.0
	for _, n := range nodes {
		refLat += n.Lat
	}
	if len(nodes) > 0 {
		refLat /= float64(len(nodes))
	}
	proj := geo.NewEquirectangular(refLat)

	items := make([]*indexedNode, len(nodes))
	objs := make([]rtreego.Spatial, len(nodes))
	for i, n := range nodes {
		x, y := proj.Project(n.Lat, n.Lon)
		items[i] = &indexedNode{id: n.ID, x: x, y: y}
		objs[i] = items[i]
	}

	return &Index{
		tree:  rtreego.NewTree(2, minChildren, maxChildren, objs...),
		proj:  proj,
		nodes: items,
	}
}

func (idx *Index) Size() int {
	return len(idx.nodes)
}

// distance is in meters on the projected plane.
func (idx *Index) distance(n *indexedNode, x, y float64) float64 {
	return math.Hypot(n.x-x, n.y-y)
}

func closer(d float64, n *indexedNode, bestD float64, best *indexedNode) bool {
	return d < bestD || (d == bestD && n.id < best.id)
}

// Nearest returns the node closest to (lat, lon), the lowest id on ties.
// The R-tree gives a candidate at distance d; every node within d is then
// examined, so the answer is the true nearest and not just a nearby one.
func (idx *Index) Nearest(lat, lon float64) (datastructure.NodeID, error) {
	if len(idx.nodes) == 0 {
		return 0, ErrEmptyIndex
	}

	x, y := idx.proj.Project(lat, lon)
	q := rtreego.Point{x, y}

	best := idx.tree.NearestNeighbor(q).(*indexedNode)
	bestD := idx.distance(best, x, y)

	window := q.ToRect(bestD + pointTolerance)
	for _, obj := range idx.tree.SearchIntersect(window) {
		n := obj.(*indexedNode)
		if d := idx.distance(n, x, y); closer(d, n, bestD, best) {
			best, bestD = n, d
		}
	}
	return best.id, nil
}

// NearestBruteForce scans every node with the same metric as Nearest.
func (idx *Index) NearestBruteForce(lat, lon float64) (datastructure.NodeID, error) {
	if len(idx.nodes) == 0 {
		return 0, ErrEmptyIndex
	}

	x, y := idx.proj.Project(lat, lon)
	best := idx.nodes[0]
	bestD := idx.distance(best, x, y)
	for _, n := range idx.nodes[1:] {
		if d := idx.distance(n, x, y); closer(d, n, bestD, best) {
			best, bestD = n, d
		}
	}
	return best.id, nil
}
