package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// mean earth radius
const earthRadiusM = 6371008.8

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// EarthDistance returns the great-circle distance between two points in meters.
// Edge lengths and the A* heuristic both use it, so they share one metric.
func EarthDistance(latOne, lonOne, latTwo, lonTwo float64) float64 {
	a := s2.LatLngFromDegrees(latOne, lonOne)
	b := s2.LatLngFromDegrees(latTwo, lonTwo)
	return a.Distance(b).Radians() * earthRadiusM
}

// Equirectangular projects lat/lon onto a flat plane in meters around a reference latitude.
// Good enough at city and regional scale, degrades towards the poles.
type Equirectangular struct {
	refLat float64
	cosRef float64
}

func NewEquirectangular(refLat float64) Equirectangular {
	return Equirectangular{
		refLat: refLat,
		cosRef: math.Cos(degreeToRadians(refLat)),
	}
}

func (p Equirectangular) RefLat() float64 {
	return p.refLat
}

// Project returns (x, y) in meters.
func (p Equirectangular) Project(lat, lon float64) (float64, float64) {
	x := degreeToRadians(lon) * p.cosRef * earthRadiusM
	y := degreeToRadians(lat) * earthRadiusM
	return x, y
}

// Distance is the euclidean distance between two projected points.
func (p Equirectangular) Distance(latOne, lonOne, latTwo, lonTwo float64) float64 {
	x1, y1 := p.Project(latOne, lonOne)
	x2, y2 := p.Project(latTwo, lonTwo)
	return math.Hypot(x1-x2, y1-y2)
}
