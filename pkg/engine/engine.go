package engine

import (
	"context"
	"runtime"

	"lintang/routex/pkg/concurrent"
	"lintang/routex/pkg/datastructure"
	"lintang/routex/pkg/engine/routingalgorithm"
	"lintang/routex/pkg/graphbuilder"
	"lintang/routex/pkg/profile"
	"lintang/routex/pkg/spatial"

	"go.uber.org/zap"
)

// Engine bundles an immutable graph with its spatial index and router.
// Every method is safe for concurrent use.
type Engine struct {
	graph  *datastructure.Graph
	index  *spatial.Index
	router *routingalgorithm.RouteAlgorithm
	logger *zap.Logger
}

func New(g *datastructure.Graph, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		graph:  g,
		index:  spatial.NewIndex(g),
		router: routingalgorithm.NewRouteAlgorithm(g),
		logger: logger,
	}
}

// Build constructs the graph for prof from raw primitives and wraps it in an Engine.
func Build(src graphbuilder.Source, prof profile.Evaluator, logger *zap.Logger,
	opts ...graphbuilder.Option) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	builder := graphbuilder.New(prof, append([]graphbuilder.Option{graphbuilder.WithLogger(logger)}, opts...)...)
	g, err := builder.Build(src)
	if err != nil {
		return nil, err
	}
	return New(g, logger), nil
}

func (e *Engine) Graph() *datastructure.Graph {
	return e.graph
}

func (e *Engine) NearestNode(lat, lon float64) (datastructure.NodeID, error) {
	return e.index.Nearest(lat, lon)
}

func (e *Engine) NodeByID(id datastructure.NodeID) (datastructure.Node, error) {
	return e.graph.Node(id)
}

func (e *Engine) FindRoute(ctx context.Context, from, to datastructure.NodeID,
	opts ...routingalgorithm.SearchOption) (routingalgorithm.Route, error) {
	route, err := e.router.ShortestPathAStar(ctx, from, to, opts...)
	if err != nil {
		e.logger.Debug("route query failed",
			zap.Int64("from", int64(from)),
			zap.Int64("to", int64(to)),
			zap.Error(err))
		return routingalgorithm.Route{}, err
	}
	return route, nil
}

// FindRouteBetween snaps both coordinates to their nearest nodes and routes between them.
func (e *Engine) FindRouteBetween(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64,
	opts ...routingalgorithm.SearchOption) (routingalgorithm.Route, error) {
	from, err := e.NearestNode(srcLat, srcLon)
	if err != nil {
		return routingalgorithm.Route{}, err
	}
	to, err := e.NearestNode(dstLat, dstLon)
	if err != nil {
		return routingalgorithm.Route{}, err
	}
	return e.FindRoute(ctx, from, to, opts...)
}

type RouteResult struct {
	Route routingalgorithm.Route
	Err   error
}

type routeResultWithIndex struct {
	index int
	RouteResult
}

// FindRoutes answers many queries in parallel, results keep the order of pairs.
func (e *Engine) FindRoutes(ctx context.Context, pairs [][2]datastructure.NodeID,
	opts ...routingalgorithm.SearchOption) []RouteResult {
	results := make([]RouteResult, len(pairs))

	workers := concurrent.NewWorkerPool[concurrent.RouteQuery, routeResultWithIndex](runtime.NumCPU(), len(pairs))
	for i, p := range pairs {
		workers.AddJob(concurrent.NewRouteQuery(i, p[0], p[1]))
	}
	workers.Close()
	workers.Start(func(q concurrent.RouteQuery) routeResultWithIndex {
		route, err := e.FindRoute(ctx, q.From, q.To, opts...)
		return routeResultWithIndex{index: q.Index, RouteResult: RouteResult{Route: route, Err: err}}
	})
	workers.Wait()

	for res := range workers.CollectResults() {
		results[res.index] = res.RouteResult
	}
	return results
}
