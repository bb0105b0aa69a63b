package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"villagemap/models"
)

// Centroid computes the true polygon centroid. Malformed input falls back to
// the first coordinate of the outer ring, then to {0,0}; it never fails the
// caller.
func Centroid(g orb.Geometry) models.Centroid {
	if !ValidateShape(g) {
		return fallbackCentroid(g)
	}
	pt, _ := planar.CentroidArea(g)
	if badCoord(pt.Lat()) || badCoord(pt.Lon()) {
		return fallbackCentroid(g)
	}
	return models.Centroid{Lat: pt.Lat(), Lng: pt.Lon()}
}

func fallbackCentroid(g orb.Geometry) models.Centroid {
	if pt, ok := firstCoordinate(g); ok {
		return models.Centroid{Lat: pt.Lat(), Lng: pt.Lon()}
	}
	return models.Centroid{}
}

// BoundingBox computes the minimal axis-aligned box covering all rings. On
// malformed input it returns a degenerate zero box rather than failing.
func BoundingBox(g orb.Geometry) models.Bounds {
	if g == nil {
		return models.Bounds{}
	}
	if _, ok := firstCoordinate(g); !ok {
		return models.Bounds{}
	}
	b := g.Bound()
	return models.Bounds{
		MinLat: b.Min.Lat(),
		MaxLat: b.Max.Lat(),
		MinLng: b.Min.Lon(),
		MaxLng: b.Max.Lon(),
	}
}

// Area returns the planar area magnitude. If the geometry fails shape
// validation it falls back to a shoelace estimate over the outer ring, and to
// 0 when no ring exists.
func Area(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	if ValidateShape(g) {
		a := math.Abs(planar.Area(g))
		if !badCoord(a) {
			return a
		}
	}
	ring, ok := outerRing(g)
	if !ok {
		return 0
	}
	return math.Abs(shoelace(ring))
}

// ValidateShape reports whether the geometry is one of the recognized types
// with usable coordinates. Polygons need an outer ring of at least 3 points.
func ValidateShape(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Polygon:
		return validPolygon(v)
	case orb.MultiPolygon:
		if len(v) == 0 {
			return false
		}
		for _, p := range v {
			if !validPolygon(p) {
				return false
			}
		}
		return true
	case orb.Point:
		return true
	case orb.LineString:
		return len(v) > 0
	default:
		return false
	}
}

func validPolygon(p orb.Polygon) bool {
	return len(p) > 0 && len(p[0]) >= 3
}

// BoundsOverlap reports whether two axis-aligned boxes intersect. This is the
// only intersection test used for viewport filtering; a record whose box
// overlaps the viewport is reported even when its true polygon does not.
func BoundsOverlap(a, b models.Bounds) bool {
	return a.MinLat <= b.MaxLat && a.MaxLat >= b.MinLat &&
		a.MinLng <= b.MaxLng && a.MaxLng >= b.MinLng
}

func badCoord(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func firstCoordinate(g orb.Geometry) (orb.Point, bool) {
	switch v := g.(type) {
	case orb.Point:
		return v, true
	case orb.LineString:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.Polygon:
		if len(v) > 0 && len(v[0]) > 0 {
			return v[0][0], true
		}
	case orb.MultiPolygon:
		if len(v) > 0 && len(v[0]) > 0 && len(v[0][0]) > 0 {
			return v[0][0][0], true
		}
	}
	return orb.Point{}, false
}

func outerRing(g orb.Geometry) (orb.Ring, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.MultiPolygon:
		if len(v) > 0 && len(v[0]) > 0 {
			return v[0][0], true
		}
	}
	return nil, false
}

func shoelace(ring orb.Ring) float64 {
	if len(ring) < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		sum += ring[i].X()*ring[j].Y() - ring[j].X()*ring[i].Y()
	}
	return sum / 2
}
