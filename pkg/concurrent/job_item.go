package concurrent

import (
	"lintang/routex/pkg/datastructure"

	"github.com/paulmach/osm"
)

// WayJob is one way to be turned into edges, Index keeps the input order.
type WayJob struct {
	Index int
	Way   *osm.Way
}

func NewWayJob(index int, way *osm.Way) WayJob {
	return WayJob{Index: index, Way: way}
}

// RouteQuery is one entry of a batch route request.
type RouteQuery struct {
	Index int
	From  datastructure.NodeID
	To    datastructure.NodeID
}

func NewRouteQuery(index int, from, to datastructure.NodeID) RouteQuery {
	return RouteQuery{Index: index, From: from, To: to}
}

type JobI interface {
	WayJob | RouteQuery
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

type JobFunc[T JobI, G any] func(job T) G
