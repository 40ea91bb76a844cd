package routingalgorithm

import "lintang/routex/pkg/datastructure"

type Graph interface {
	Node(id datastructure.NodeID) (datastructure.Node, error)
	OutEdges(id datastructure.NodeID) []datastructure.Edge
	Edge(id datastructure.EdgeID) datastructure.Edge
	TurnAllowed(in, out datastructure.EdgeID) bool
	MinCostFactor() float64
}

type RouteAlgorithm struct {
	g Graph
}

func NewRouteAlgorithm(g Graph) *RouteAlgorithm {
	return &RouteAlgorithm{g: g}
}

// Route is an optimal path. Nodes always starts with the origin and ends with the
// destination, Edges[i] connects Nodes[i] and Nodes[i+1].
type Route struct {
	Nodes    []datastructure.NodeID
	Edges    []datastructure.EdgeID
	Cost     float64
	Length   float64 // meter
	Expanded int
}
