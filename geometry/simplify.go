package geometry

import (
	"github.com/paulmach/orb"
	orbsimplify "github.com/paulmach/orb/simplify"
)

// Douglas-Peucker tolerances per zoom tier, in degrees.
const (
	ToleranceCoarse = 0.01
	ToleranceMedium = 0.001
	ToleranceFine   = 0.0001
)

// Default zoom tier thresholds; the query engine overrides them from config.
const (
	DefaultLowDetailZoom  = 8
	DefaultHighDetailZoom = 12
)

// ZoomTolerance maps a zoom level to a simplification tolerance: coarser at
// low zoom where polygons render near point size, finer as the viewport
// narrows.
func ZoomTolerance(zoom, lowDetail, highDetail int) float64 {
	switch {
	case zoom >= highDetail:
		return ToleranceFine
	case zoom >= lowDetail:
		return ToleranceMedium
	default:
		return ToleranceCoarse
	}
}

// Simplify reduces vertex count at the tolerance for the given zoom tier.
func Simplify(g orb.Geometry, zoom int) orb.Geometry {
	return SimplifyTolerance(g, ZoomTolerance(zoom, DefaultLowDetailZoom, DefaultHighDetailZoom))
}

// SimplifyTolerance runs Douglas-Peucker at an explicit tolerance. The input
// is cloned first since orb simplifiers mutate in place. Any failure returns
// the untouched input; this never fails the caller.
func SimplifyTolerance(g orb.Geometry, tolerance float64) (out orb.Geometry) {
	if g == nil || tolerance <= 0 {
		return g
	}
	out = g
	defer func() {
		if r := recover(); r != nil {
			out = g
		}
	}()
	simplified := orbsimplify.DouglasPeucker(tolerance).Simplify(orb.Clone(g))
	if simplified == nil {
		return g
	}
	return simplified
}
