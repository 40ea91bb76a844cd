package graphbuilder

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

type Option func(*Builder)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithWorkers sets how many goroutines evaluate ways.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithBoundingBox drops every segment with an endpoint outside bound.
func WithBoundingBox(bound orb.Bound) Option {
	return func(b *Builder) {
		b.bbox = &bound
	}
}

// WithoutRestrictions skips turn restriction relations entirely.
func WithoutRestrictions() Option {
	return func(b *Builder) {
		b.restrictions = false
	}
}

// WithProgress is called after every evaluated way.
func WithProgress(fn func(done, total int)) Option {
	return func(b *Builder) {
		b.progress = fn
	}
}

// ParseBoundingBox reads "minLon,minLat,maxLon,maxLat", the left, bottom, right,
// top order osm tools use.
func ParseBoundingBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bounding box %q: want minLon,minLat,maxLon,maxLat", s)
	}
	v := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bounding box %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("bounding box %q: min corner exceeds max corner", s)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	return n
}
