package cap

import (
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// ToCapArea converts a GeoJSON geometry into CAP polygon strings, one per
// exterior ring, each a space-separated list of "lat,lon" pairs (CAP mandates
// the inverse axis order of GeoJSON). Only Polygon and MultiPolygon
// geometries with exactly one ring per polygon are representable; polygons
// with interior rings cannot be expressed as CAP areas, so any hole fails the
// whole conversion rather than being approximated.
func ToCapArea(g *geojson.Geometry) ([]string, bool) {
	if g == nil {
		return nil, false
	}

	switch g.Type {
	case geojson.GeometryPolygon:
		s, ok := polygonString(g.Polygon)
		if !ok {
			return nil, false
		}
		return []string{s}, true

	case geojson.GeometryMultiPolygon:
		out := make([]string, 0, len(g.MultiPolygon))
		for _, polygon := range g.MultiPolygon {
			s, ok := polygonString(polygon)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}

	return nil, false
}

func polygonString(rings [][][]float64) (string, bool) {
	if len(rings) != 1 {
		return "", false
	}

	pairs := make([]string, 0, len(rings[0]))
	for _, c := range rings[0] {
		if len(c) < 2 {
			return "", false
		}
		pairs = append(pairs, formatCoord(c[1])+","+formatCoord(c[0]))
	}
	return strings.Join(pairs, " "), true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
