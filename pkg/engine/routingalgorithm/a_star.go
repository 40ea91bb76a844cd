package routingalgorithm

import (
	"context"
	"fmt"

	"lintang/routex/pkg/datastructure"
	"lintang/routex/pkg/geo"
	"lintang/routex/pkg/util"
)

// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/GH05.pdf

// A search state is the edge used to arrive at a node, which also determines the
// node. The start state has no arrival edge and uses InvalidEdgeID. Turn
// restrictions are checked on (arrival edge, next edge) pairs, so the same node
// can be closed once per incoming edge.
const startState = datastructure.InvalidEdgeID

// ShortestPathAStar finds the cheapest route honoring one-way streets and turn
// restrictions. Equal priorities are popped lower accumulated cost first, then in
// insertion order, which makes the choice among equal cost routes deterministic.
func (rt *RouteAlgorithm) ShortestPathAStar(ctx context.Context, from, to datastructure.NodeID,
	opts ...SearchOption) (Route, error) {
	return rt.search(ctx, from, to, true, newSearchConfig(opts))
}

// ShortestPathDijkstra explores the same state space without a heuristic.
func (rt *RouteAlgorithm) ShortestPathDijkstra(ctx context.Context, from, to datastructure.NodeID,
	opts ...SearchOption) (Route, error) {
	return rt.search(ctx, from, to, false, newSearchConfig(opts))
}

func (rt *RouteAlgorithm) search(ctx context.Context, from, to datastructure.NodeID, useHeuristic bool,
	cfg searchConfig) (Route, error) {
	if _, err := rt.g.Node(from); err != nil {
		return Route{}, err
	}
	target, err := rt.g.Node(to)
	if err != nil {
		return Route{}, err
	}
	if from == to {
		return Route{Nodes: []datastructure.NodeID{from}, Edges: []datastructure.EdgeID{}}, nil
	}

	factor := rt.g.MinCostFactor()
	estimates := make(map[datastructure.NodeID]float64)
	heuristic := func(id datastructure.NodeID) float64 {
		if !useHeuristic {
			return 0
		}
		if h, ok := estimates[id]; ok {
			return h
		}
		n, _ := rt.g.Node(id)
		h := geo.EarthDistance(n.Lat, n.Lon, target.Lat, target.Lon) * factor
		estimates[id] = h
		return h
	}

	pq := datastructure.NewMinHeap[datastructure.EdgeID]()
	costSoFar := make(map[datastructure.EdgeID]float64)
	cameFrom := make(map[datastructure.EdgeID]datastructure.EdgeID)
	closed := make(map[datastructure.EdgeID]struct{})

	costSoFar[startState] = 0
	pq.Insert(datastructure.PriorityQueueNode[datastructure.EdgeID]{Rank: heuristic(from), Tie: 0, Item: startState})

	expanded := 0
	for pq.Size() > 0 {
		current, _ := pq.ExtractMin()
		state := current.Item
		if _, ok := closed[state]; ok {
			continue
		}
		if current.Tie > costSoFar[state] {
			// stale entry, a cheaper one was pushed later
			continue
		}
		closed[state] = struct{}{}

		node := from
		if state != startState {
			node = rt.g.Edge(state).To
		}
		if node == to {
			route := rt.reconstructRoute(from, state, cameFrom)
			route.Cost = costSoFar[state]
			route.Expanded = expanded
			return route, nil
		}

		if cfg.stepLimit > 0 && expanded >= cfg.stepLimit {
			return Route{}, &SearchAbortedError{Expanded: expanded, Cause: ErrStepLimitExceeded}
		}
		if expanded%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Route{}, &SearchAbortedError{Expanded: expanded, Cause: err}
			}
		}
		expanded++

		var cameFromNode datastructure.NodeID
		if state != startState {
			cameFromNode = rt.g.Edge(state).From
		}
		for _, edge := range rt.g.OutEdges(node) {
			if !rt.g.TurnAllowed(state, edge.ID) {
				continue
			}
			if cfg.withoutTurnAround && state != startState && edge.To == cameFromNode {
				continue
			}
			if _, ok := closed[edge.ID]; ok {
				continue
			}

			newCost := current.Tie + edge.Cost
			if old, ok := costSoFar[edge.ID]; ok && newCost >= old {
				continue
			}
			costSoFar[edge.ID] = newCost
			cameFrom[edge.ID] = state

			pq.Insert(datastructure.PriorityQueueNode[datastructure.EdgeID]{
				Rank: newCost + heuristic(edge.To),
				Tie:  newCost,
				Item: edge.ID,
			})
		}
	}

	return Route{}, fmt.Errorf("%w: from %d to %d after %d expansions", ErrNoRoute, from, to, expanded)
}

func (rt *RouteAlgorithm) reconstructRoute(from datastructure.NodeID, last datastructure.EdgeID,
	cameFrom map[datastructure.EdgeID]datastructure.EdgeID) Route {
	pathEdges := []datastructure.EdgeID{}
	for state := last; state != startState; state = cameFrom[state] {
		pathEdges = append(pathEdges, state)
	}
	pathEdges = util.ReverseG(pathEdges)

	route := Route{
		Nodes: []datastructure.NodeID{from},
		Edges: pathEdges,
	}
	for _, id := range pathEdges {
		edge := rt.g.Edge(id)
		route.Length += edge.Length
		if route.Nodes[len(route.Nodes)-1] != edge.To {
			route.Nodes = append(route.Nodes, edge.To)
		}
	}
	return route
}
