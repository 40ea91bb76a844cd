package datastructure

import (
	"fmt"
	"math"
	"sort"

	"github.com/twpayne/go-polyline"
)

type NodeID int64

type EdgeID int32

// InvalidEdgeID marks the search start state, which has no arrival edge.
const InvalidEdgeID EdgeID = -1

type Node struct {
	ID  NodeID
	Lat float64
	Lon float64
}

func NewNode(id NodeID, lat, lon float64) Node {
	return Node{ID: id, Lat: lat, Lon: lon}
}

type Edge struct {
	ID     EdgeID
	From   NodeID
	To     NodeID
	Cost   float64
	Length float64 // meter
	WayID  int64
}

type RestrictionKind uint8

const (
	// Prohibitory forbids one (from, via, to) turn.
	Prohibitory RestrictionKind = iota + 1
	// Mandatory allows only the listed turns out of (from, via).
	Mandatory
)

func (k RestrictionKind) String() string {
	switch k {
	case Prohibitory:
		return "prohibitory"
	case Mandatory:
		return "mandatory"
	default:
		return "unknown"
	}
}

type TurnRestriction struct {
	From EdgeID
	Via  NodeID
	To   EdgeID
	Kind RestrictionKind
}

type turnKey struct {
	in  EdgeID
	out EdgeID
}

// Graph is the immutable road network. Nodes are sorted by id, edges are stored in
// an arena sorted by source node so every node owns a contiguous range of outgoing
// edges (firstOut[i]..firstOut[i+1]). After NewGraph returns nothing mutates it,
// so any number of goroutines may read it concurrently.
type Graph struct {
	profileName   string
	minCostFactor float64

	nodes    []Node
	nodeIdx  map[NodeID]int32
	edges    []Edge
	firstOut []int32

	restrictions []TurnRestriction
	prohibited   map[turnKey]struct{}
	mandatory    map[EdgeID][]EdgeID
}

// NewGraph validates and freezes a graph. Edge ids in the input are ignored: edges are
// identified by their position in the edges slice, and restrictions must reference
// them that way. The returned graph renumbers edges densely in (source node, input
// order) order and remaps the restrictions accordingly.
func NewGraph(profileName string, minCostFactor float64, nodes []Node, edges []Edge,
	restrictions []TurnRestriction) (*Graph, error) {
	if math.IsNaN(minCostFactor) || math.IsInf(minCostFactor, 0) || minCostFactor <= 0 {
		return nil, fmt.Errorf("%w: min cost factor must be finite and > 0, got %v", ErrInvalidGraph, minCostFactor)
	}

	g := &Graph{
		profileName:   profileName,
		minCostFactor: minCostFactor,
		nodes:         make([]Node, len(nodes)),
		nodeIdx:       make(map[NodeID]int32, len(nodes)),
		prohibited:    make(map[turnKey]struct{}),
		mandatory:     make(map[EdgeID][]EdgeID),
	}

	copy(g.nodes, nodes)
	sort.Slice(g.nodes, func(i, j int) bool {
		return g.nodes[i].ID < g.nodes[j].ID
	})
	for i, n := range g.nodes {
		if _, ok := g.nodeIdx[n.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate node %d", ErrInvalidGraph, n.ID)
		}
		g.nodeIdx[n.ID] = int32(i)
	}

	for i, e := range edges {
		if _, ok := g.nodeIdx[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge %d starts at unknown node %d", ErrInvalidGraph, i, e.From)
		}
		if _, ok := g.nodeIdx[e.To]; !ok {
			return nil, fmt.Errorf("%w: edge %d ends at unknown node %d", ErrInvalidGraph, i, e.To)
		}
		if math.IsNaN(e.Cost) || math.IsInf(e.Cost, 0) || e.Cost <= 0 {
			return nil, fmt.Errorf("%w: edge %d has cost %v", ErrInvalidGraph, i, e.Cost)
		}
	}

	order := make([]int, len(edges))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return g.nodeIdx[edges[order[a]].From] < g.nodeIdx[edges[order[b]].From]
	})

	remap := make([]EdgeID, len(edges))
	g.edges = make([]Edge, len(edges))
	g.firstOut = make([]int32, len(g.nodes)+1)
	for newID, oldID := range order {
		e := edges[oldID]
		e.ID = EdgeID(newID)
		g.edges[newID] = e
		remap[oldID] = EdgeID(newID)
		g.firstOut[g.nodeIdx[e.From]+1]++
	}
	for i := 1; i < len(g.firstOut); i++ {
		g.firstOut[i] += g.firstOut[i-1]
	}

	seen := make(map[TurnRestriction]struct{}, len(restrictions))
	for _, r := range restrictions {
		if int(r.From) < 0 || int(r.From) >= len(edges) || int(r.To) < 0 || int(r.To) >= len(edges) {
			return nil, fmt.Errorf("%w: restriction references unknown edge (%d, %d)", ErrInvalidGraph, r.From, r.To)
		}
		r.From = remap[r.From]
		r.To = remap[r.To]
		if g.edges[r.From].To != r.Via || g.edges[r.To].From != r.Via {
			return nil, fmt.Errorf("%w: restriction edges %d and %d do not meet at node %d", ErrInvalidGraph, r.From, r.To, r.Via)
		}
		if r.Kind != Prohibitory && r.Kind != Mandatory {
			return nil, fmt.Errorf("%w: restriction has kind %d", ErrInvalidGraph, r.Kind)
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		g.restrictions = append(g.restrictions, r)

		if r.Kind == Prohibitory {
			g.prohibited[turnKey{r.From, r.To}] = struct{}{}
		} else {
			g.mandatory[r.From] = append(g.mandatory[r.From], r.To)
		}
	}
	sort.Slice(g.restrictions, func(i, j int) bool {
		a, b := g.restrictions[i], g.restrictions[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})

	return g, nil
}

func (g *Graph) ProfileName() string {
	return g.profileName
}

// MinCostFactor is the smallest cost per meter any edge can have.
func (g *Graph) MinCostFactor() float64 {
	return g.minCostFactor
}

func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// Nodes returns the node slice sorted by id. Callers must not modify it.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges returns the edge arena indexed by EdgeID. Callers must not modify it.
func (g *Graph) Edges() []Edge {
	return g.edges
}

func (g *Graph) Restrictions() []TurnRestriction {
	return g.restrictions
}

func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

func (g *Graph) Node(id NodeID) (Node, error) {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return Node{}, &UnknownNodeError{ID: id}
	}
	return g.nodes[idx], nil
}

func (g *Graph) Edge(id EdgeID) Edge {
	return g.edges[id]
}

// OutEdges returns the outgoing edges of a node, nil for unknown nodes.
func (g *Graph) OutEdges(id NodeID) []Edge {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	return g.edges[g.firstOut[idx]:g.firstOut[idx+1]]
}

// EdgeCost returns the cheapest cost of going directly from one node to another,
// or +Inf if no such edge exists.
func (g *Graph) EdgeCost(from, to NodeID) float64 {
	cost := math.Inf(1)
	for _, e := range g.OutEdges(from) {
		if e.To == to && e.Cost < cost {
			cost = e.Cost
		}
	}
	return cost
}

// TurnAllowed reports whether arriving over in and leaving over out is legal.
// InvalidEdgeID as in is always allowed.
func (g *Graph) TurnAllowed(in, out EdgeID) bool {
	if in == InvalidEdgeID {
		return true
	}
	if _, ok := g.prohibited[turnKey{in, out}]; ok {
		return false
	}
	only, ok := g.mandatory[in]
	if !ok {
		return true
	}
	for _, e := range only {
		if e == out {
			return true
		}
	}
	return false
}

// RenderPath encodes a node sequence as a google polyline.
func (g *Graph) RenderPath(path []NodeID) string {
	coords := make([][]float64, 0, len(path))
	for _, id := range path {
		n, err := g.Node(id)
		if err != nil {
			continue
		}
		coords = append(coords, []float64{n.Lat, n.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}
