package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
)

// BBRect is a latitude/longitude bounding box backed by an S2 loop for point
// containment tests.
type BBRect struct {
	LatLo float64
	LatHi float64
	LngLo float64
	LngHi float64

	loop *s2.Loop
}

// ParseBounds parses "latLo latHi lngLo lngHi". An empty string yields a nil
// box, meaning no filtering.
func ParseBounds(bounds string) (*BBRect, error) {
	parts := strings.Fields(bounds)
	if len(parts) == 0 {
		return nil, nil
	}
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounds not in correct format, found %d values, want 4", len(parts))
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bounds value %q: %w", p, err)
		}
		vals[i] = v
	}

	b := &BBRect{LatLo: vals[0], LatHi: vals[1], LngLo: vals[2], LngHi: vals[3]}
	b.loop = boundsLoop(b.LatLo, b.LatHi, b.LngLo, b.LngHi)
	return b, nil
}

func (b *BBRect) ContainsPoint(lat, lng float64) bool {
	pt := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
	return b.loop.ContainsPoint(pt)
}

func boundsLoop(latLo, latHi, lngLo, lngHi float64) *s2.Loop {
	points := []s2.Point{
		s2.PointFromLatLng(s2.LatLngFromDegrees(latLo, lngLo)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(latLo, lngHi)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(latHi, lngHi)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(latHi, lngLo)),
	}

	loop := s2.LoopFromPoints(points)
	// A loop wound the wrong way claims nearly the whole sphere; anything
	// over 0.1 steradians is nonsense for a viewport and gets inverted.
	if loop.Area() > 0.1 {
		loop.Invert()
	}
	return loop
}

// FilterCollection keeps the features with at least one exterior-ring vertex
// (or point) inside the box. Geometry types without testable vertices are
// kept rather than silently dropped.
func FilterCollection(fc *geojson.FeatureCollection, box *BBRect) *geojson.FeatureCollection {
	if box == nil {
		return fc
	}
	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if featureInBounds(f, box) {
			out.AddFeature(f)
		}
	}
	return out
}

func featureInBounds(f *geojson.Feature, box *BBRect) bool {
	g := f.Geometry
	if g == nil {
		return true
	}
	switch g.Type {
	case geojson.GeometryPoint:
		return len(g.Point) >= 2 && box.ContainsPoint(g.Point[1], g.Point[0])
	case geojson.GeometryPolygon:
		return ringInBounds(exteriorRing(g.Polygon), box)
	case geojson.GeometryMultiPolygon:
		for _, polygon := range g.MultiPolygon {
			if ringInBounds(exteriorRing(polygon), box) {
				return true
			}
		}
		return false
	}
	return true
}

func exteriorRing(rings [][][]float64) [][]float64 {
	if len(rings) == 0 {
		return nil
	}
	return rings[0]
}

func ringInBounds(ring [][]float64, box *BBRect) bool {
	for _, c := range ring {
		if len(c) >= 2 && box.ContainsPoint(c[1], c[0]) {
			return true
		}
	}
	return false
}
