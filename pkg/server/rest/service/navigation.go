package service

import (
	"context"

	"lintang/routex/pkg/datastructure"
	"lintang/routex/pkg/engine/routingalgorithm"
	"lintang/routex/pkg/geo"
)

type RoutingEngine interface {
	Graph() *datastructure.Graph
	NearestNode(lat, lon float64) (datastructure.NodeID, error)
	NodeByID(id datastructure.NodeID) (datastructure.Node, error)
	FindRoute(ctx context.Context, from, to datastructure.NodeID,
		opts ...routingalgorithm.SearchOption) (routingalgorithm.Route, error)
}

type NavigationService struct {
	engine    RoutingEngine
	stepLimit int
}

func NewNavigationService(engine RoutingEngine, stepLimit int) *NavigationService {
	return &NavigationService{engine: engine, stepLimit: stepLimit}
}

type RouteResult struct {
	Path     string // encoded polyline
	Nodes    []datastructure.Node
	Cost     float64
	Length   float64
	Expanded int
}

type SnapResult struct {
	Node     datastructure.Node
	Distance float64 // meter
}

func (s *NavigationService) NearestNode(ctx context.Context, lat, lon float64) (SnapResult, error) {
	id, err := s.engine.NearestNode(lat, lon)
	if err != nil {
		return SnapResult{}, err
	}
	n, err := s.engine.NodeByID(id)
	if err != nil {
		return SnapResult{}, err
	}
	return SnapResult{Node: n, Distance: geo.EarthDistance(lat, lon, n.Lat, n.Lon)}, nil
}

func (s *NavigationService) ShortestPath(ctx context.Context, from, to datastructure.NodeID,
	withoutTurnAround bool) (RouteResult, error) {
	opts := []routingalgorithm.SearchOption{routingalgorithm.WithStepLimit(s.stepLimit)}
	if withoutTurnAround {
		opts = append(opts, routingalgorithm.WithoutTurnAround())
	}

	route, err := s.engine.FindRoute(ctx, from, to, opts...)
	if err != nil {
		return RouteResult{}, err
	}

	res := RouteResult{
		Path:     s.engine.Graph().RenderPath(route.Nodes),
		Nodes:    make([]datastructure.Node, 0, len(route.Nodes)),
		Cost:     route.Cost,
		Length:   route.Length,
		Expanded: route.Expanded,
	}
	for _, id := range route.Nodes {
		n, err := s.engine.NodeByID(id)
		if err != nil {
			return RouteResult{}, err
		}
		res.Nodes = append(res.Nodes, n)
	}
	return res, nil
}

// ShortestPathCoords snaps both coordinates to the road network first.
func (s *NavigationService) ShortestPathCoords(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64,
	withoutTurnAround bool) (RouteResult, error) {
	from, err := s.engine.NearestNode(srcLat, srcLon)
	if err != nil {
		return RouteResult{}, err
	}
	to, err := s.engine.NearestNode(dstLat, dstLon)
	if err != nil {
		return RouteResult{}, err
	}
	return s.ShortestPath(ctx, from, to, withoutTurnAround)
}

// Node returns a node with its outgoing edges.
func (s *NavigationService) Node(ctx context.Context, id datastructure.NodeID) (datastructure.Node,
	[]datastructure.Edge, error) {
	n, err := s.engine.NodeByID(id)
	if err != nil {
		return datastructure.Node{}, nil, err
	}
	return n, s.engine.Graph().OutEdges(id), nil
}
