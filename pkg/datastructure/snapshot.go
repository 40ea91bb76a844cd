package datastructure

// GraphSnapshot is the flat, exported form of a Graph used for serialization.
type GraphSnapshot struct {
	ProfileName   string
	MinCostFactor float64
	Nodes         []Node
	Edges         []Edge
	Restrictions  []TurnRestriction
}

func (g *Graph) Snapshot() GraphSnapshot {
	s := GraphSnapshot{
		ProfileName:   g.profileName,
		MinCostFactor: g.minCostFactor,
		Nodes:         make([]Node, len(g.nodes)),
		Edges:         make([]Edge, len(g.edges)),
		Restrictions:  make([]TurnRestriction, len(g.restrictions)),
	}
	copy(s.Nodes, g.nodes)
	copy(s.Edges, g.edges)
	copy(s.Restrictions, g.restrictions)
	return s
}

// FromSnapshot rebuilds a graph. Edge ids of a snapshot already equal their
// positions, so the ids survive the round trip.
func FromSnapshot(s GraphSnapshot) (*Graph, error) {
	return NewGraph(s.ProfileName, s.MinCostFactor, s.Nodes, s.Edges, s.Restrictions)
}
