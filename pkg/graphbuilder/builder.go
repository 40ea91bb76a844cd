package graphbuilder

import (
	"fmt"
	"math"

	"lintang/routex/pkg/concurrent"
	"lintang/routex/pkg/datastructure"
	"lintang/routex/pkg/geo"
	"lintang/routex/pkg/profile"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"go.uber.org/zap"
)

// minSegmentLength keeps edges between coincident nodes strictly positive.
const minSegmentLength = 0.01 // meter

// Source holds the raw primitives of one map extract.
type Source struct {
	Nodes     []*osm.Node
	Ways      []*osm.Way
	Relations []*osm.Relation
}

// Stats describes the last Build run.
type Stats struct {
	Ways                 int
	WaysUsed             int
	Nodes                int
	Edges                int
	RestrictionsResolved int
	RestrictionsDropped  map[string]int
	// strongly connected components of the node level graph
	Components       int
	LargestComponent int
}

// Builder turns OSM primitives into an immutable routing graph for one profile.
// A Builder is not safe for concurrent Build calls; the graphs it returns are.
type Builder struct {
	profile      profile.Evaluator
	logger       *zap.Logger
	workers      int
	bbox         *orb.Bound
	restrictions bool
	progress     func(done, total int)

	stats Stats
}

func New(prof profile.Evaluator, opts ...Option) *Builder {
	b := &Builder{
		profile:      prof,
		logger:       zap.NewNop(),
		workers:      defaultWorkers(),
		restrictions: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Stats() Stats {
	return b.stats
}

// Fingerprint digests every setting that changes the built graph: the
// profile rule table, the bounding box and whether restrictions are read.
// Workers, logger and progress are left out.
func (b *Builder) Fingerprint() uint64 {
	d := xxhash.New()
	if fp, ok := b.profile.(interface{ Fingerprint() uint64 }); ok {
		fmt.Fprintf(d, "profile=%016x\n", fp.Fingerprint())
	} else {
		fmt.Fprintf(d, "profile=%s/%x\n", b.profile.Name(), math.Float64bits(b.profile.MinCostFactor()))
	}
	if b.bbox != nil {
		fmt.Fprintf(d, "bbox=%x,%x,%x,%x\n",
			math.Float64bits(b.bbox.Min.Lon()), math.Float64bits(b.bbox.Min.Lat()),
			math.Float64bits(b.bbox.Max.Lon()), math.Float64bits(b.bbox.Max.Lat()))
	}
	fmt.Fprintf(d, "restrictions=%t\n", b.restrictions)
	return d.Sum64()
}

type pendingEdge struct {
	from   datastructure.NodeID
	to     datastructure.NodeID
	cost   float64
	length float64
	wayID  int64
}

type wayResult struct {
	index int
	edges []pendingEdge
	err   error
}

// Build runs the whole pipeline: node index, way evaluation, restriction
// resolution and freezing into a datastructure.Graph.
func (b *Builder) Build(src Source) (*datastructure.Graph, error) {
	b.stats = Stats{
		Ways:                len(src.Ways),
		RestrictionsDropped: make(map[string]int),
	}

	nodes, err := b.indexNodes(src.Nodes)
	if err != nil {
		return nil, err
	}

	b.logger.Sugar().Infof("processing %d openstreetmap ways with profile %s...", len(src.Ways), b.profile.Name())
	results := b.evaluateWays(src.Ways, nodes)

	edges := make([]pendingEdge, 0, len(src.Ways)*2)
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		if len(res.edges) > 0 {
			b.stats.WaysUsed++
		}
		edges = append(edges, res.edges...)
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: profile %s accepted none of %d ways", ErrEmptyGraph, b.profile.Name(), len(src.Ways))
	}

	graphEdges := make([]datastructure.Edge, len(edges))
	used := make(map[datastructure.NodeID]struct{})
	for i, e := range edges {
		graphEdges[i] = datastructure.Edge{
			ID:     datastructure.EdgeID(i),
			From:   e.from,
			To:     e.to,
			Cost:   e.cost,
			Length: e.length,
			WayID:  e.wayID,
		}
		used[e.from] = struct{}{}
		used[e.to] = struct{}{}
	}

	graphNodes := make([]datastructure.Node, 0, len(used))
	for id := range used {
		n := nodes[osm.NodeID(id)]
		graphNodes = append(graphNodes, datastructure.NewNode(id, n.Lat, n.Lon))
	}

	var restrictions []datastructure.TurnRestriction
	if b.restrictions {
		restrictions = b.resolveRestrictions(src.Relations, graphEdges, used)
	}

	g, err := datastructure.NewGraph(b.profile.Name(), b.profile.MinCostFactor(), graphNodes, graphEdges, restrictions)
	if err != nil {
		return nil, fmt.Errorf("freezing graph: %w", err)
	}

	b.stats.Nodes = g.NumNodes()
	b.stats.Edges = g.NumEdges()
	scc := g.StronglyConnectedComponents()
	b.stats.Components = len(scc)
	b.stats.LargestComponent = len(scc[0])
	if b.stats.Components > 1 {
		b.logger.Sugar().Infof("strongly connected components: %d, largest has %d of %d nodes",
			b.stats.Components, b.stats.LargestComponent, b.stats.Nodes)
	}
	b.logger.Sugar().Infof("graph ready: %d nodes, %d edges, %d turn restrictions (%d dropped)",
		b.stats.Nodes, b.stats.Edges, b.stats.RestrictionsResolved, b.droppedRestrictions())
	return g, nil
}

func (b *Builder) droppedRestrictions() int {
	total := 0
	for _, c := range b.stats.RestrictionsDropped {
		total += c
	}
	return total
}

func (b *Builder) indexNodes(rawNodes []*osm.Node) (map[osm.NodeID]*osm.Node, error) {
	nodes := make(map[osm.NodeID]*osm.Node, len(rawNodes))
	for _, n := range rawNodes {
		if n == nil {
			continue
		}
		if math.IsNaN(n.Lat) || math.IsNaN(n.Lon) || n.Lat < -90 || n.Lat > 90 || n.Lon < -180 || n.Lon > 180 {
			return nil, &MalformedInputError{NodeID: int64(n.ID), Reason: "coordinates out of range"}
		}
		if prev, ok := nodes[n.ID]; ok && (prev.Lat != n.Lat || prev.Lon != n.Lon) {
			return nil, &MalformedInputError{NodeID: int64(n.ID), Reason: "duplicate node with different coordinates"}
		}
		nodes[n.ID] = n
	}
	return nodes, nil
}

func (b *Builder) evaluateWays(ways []*osm.Way, nodes map[osm.NodeID]*osm.Node) []wayResult {
	results := make([]wayResult, len(ways))

	workers := concurrent.NewWorkerPool[concurrent.WayJob, wayResult](b.workers, len(ways))
	for i, way := range ways {
		workers.AddJob(concurrent.NewWayJob(i, way))
	}
	workers.Close()
	workers.Start(func(job concurrent.WayJob) wayResult {
		edges, err := b.processWay(job.Way, nodes)
		return wayResult{index: job.Index, edges: edges, err: err}
	})
	workers.Wait()

	done := 0
	for res := range workers.CollectResults() {
		results[res.index] = res
		done++
		if b.progress != nil {
			b.progress(done, len(ways))
		}
	}
	return results
}

// processWay emits 0, 1 or 2 directed edges per consecutive node pair.
func (b *Builder) processWay(way *osm.Way, nodes map[osm.NodeID]*osm.Node) ([]pendingEdge, error) {
	if way == nil {
		return nil, nil
	}
	forward := b.profile.Permits(way.Tags, profile.Forward)
	backward := b.profile.Permits(way.Tags, profile.Backward)
	if !forward && !backward {
		return nil, nil
	}

	refs := make([]*osm.Node, 0, len(way.Nodes))
	var prevID osm.NodeID
	for i, wn := range way.Nodes {
		if i > 0 && wn.ID == prevID {
			continue
		}
		prevID = wn.ID
		n, ok := nodes[wn.ID]
		if !ok {
			return nil, &MalformedInputError{WayID: int64(way.ID), NodeID: int64(wn.ID), Reason: "way references missing node"}
		}
		refs = append(refs, n)
	}
	if len(refs) < 2 {
		return nil, nil
	}

	lengths := make([]float64, len(refs)-1)
	total := 0.0
	for i := 0; i < len(refs)-1; i++ {
		lengths[i] = geo.EarthDistance(refs[i].Lat, refs[i].Lon, refs[i+1].Lat, refs[i+1].Lon)
		total += lengths[i]
	}
	if total == 0 {
		b.logger.Debug("dropping zero length way", zap.Int64("way", int64(way.ID)))
		return nil, nil
	}

	edges := make([]pendingEdge, 0, 2*len(lengths))
	for i, length := range lengths {
		a, c := refs[i], refs[i+1]
		if !b.inBounds(a) || !b.inBounds(c) {
			continue
		}
		length = math.Max(length, minSegmentLength)

		if forward {
			edges = append(edges, pendingEdge{
				from:   datastructure.NodeID(a.ID),
				to:     datastructure.NodeID(c.ID),
				cost:   b.profile.Cost(way.Tags, profile.Forward, length),
				length: length,
				wayID:  int64(way.ID),
			})
		}
		if backward {
			edges = append(edges, pendingEdge{
				from:   datastructure.NodeID(c.ID),
				to:     datastructure.NodeID(a.ID),
				cost:   b.profile.Cost(way.Tags, profile.Backward, length),
				length: length,
				wayID:  int64(way.ID),
			})
		}
	}
	return edges, nil
}

func (b *Builder) inBounds(n *osm.Node) bool {
	if b.bbox == nil {
		return true
	}
	return b.bbox.Contains(orb.Point{n.Lon, n.Lat})
}
