package query

import (
	"context"
	"fmt"

	"villagemap/geometry"
	"villagemap/metrics"
	"villagemap/models"
	"villagemap/store"
)

// Store is the read surface the engine needs; the mongo store implements it
// and tests use fakes.
type Store interface {
	List(ctx context.Context, f store.ListFilters, opt store.QueryOptions) ([]models.VillageRecord, error)
	InBounds(ctx context.Context, b models.Bounds, f store.ListFilters, opt store.QueryOptions) ([]models.VillageRecord, error)
}

// Config holds the zoom tier thresholds and result caps.
type Config struct {
	LowDetailZoom  int
	HighDetailZoom int
	MaxResults     int64
	DefaultResults int64
}

func DefaultConfig() Config {
	return Config{
		LowDetailZoom:  geometry.DefaultLowDetailZoom,
		HighDetailZoom: geometry.DefaultHighDetailZoom,
		MaxResults:     1000,
		DefaultResults: 200,
	}
}

// InvalidBoundsError rejects a malformed viewport before the store is touched.
type InvalidBoundsError struct {
	Reason string
}

func (e *InvalidBoundsError) Error() string { return "invalid bounds: " + e.Reason }

// ListOptions controls a filtered village listing.
type ListOptions struct {
	Zoom            int
	Limit           int64
	IncludeGeometry bool
}

// Engine selects field projection, result caps and geometry detail from the
// client zoom level and runs queries against the store.
type Engine struct {
	store Store
	cfg   Config
}

func NewEngine(s Store, cfg Config) *Engine {
	if cfg.MaxResults <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{store: s, cfg: cfg}
}

// ListVillages runs an attribute-filtered listing with zoom-adaptive detail.
func (e *Engine) ListVillages(ctx context.Context, f store.ListFilters, opt ListOptions) ([]models.VillageRecord, error) {
	metrics.ViewportQueries.Inc()
	qopt := e.options(opt.Zoom, opt.Limit, opt.IncludeGeometry)
	recs, err := e.store.List(ctx, f, qopt)
	if err != nil {
		return nil, err
	}
	e.decorate(recs, opt.Zoom, qopt.IncludeGeometry)
	return recs, nil
}

// VillagesInBounds returns villages whose bounding box overlaps the viewport.
// Box overlap is approximate by design: false positives near viewport edges
// are accepted, the true polygons are never intersected.
func (e *Engine) VillagesInBounds(ctx context.Context, q models.BoundsQuery, f store.ListFilters) ([]models.VillageRecord, error) {
	if err := validateBounds(q); err != nil {
		return nil, err
	}
	metrics.ViewportQueries.Inc()
	qopt := e.options(q.Zoom, 0, false)
	recs, err := e.store.InBounds(ctx, q.Bounds(), f, qopt)
	if err != nil {
		return nil, err
	}
	e.decorate(recs, q.Zoom, qopt.IncludeGeometry)
	return recs, nil
}

// options picks the result cap and whether full geometry ships. Low zoom
// means a wide viewport where polygons are visually points: cap harder, skip
// geometry.
func (e *Engine) options(zoom int, limit int64, wantGeometry bool) store.QueryOptions {
	opt := store.QueryOptions{}
	switch {
	case zoom >= e.cfg.HighDetailZoom:
		opt.Limit = e.cfg.MaxResults
		opt.IncludeGeometry = true
	case zoom >= e.cfg.LowDetailZoom:
		opt.Limit = e.cfg.MaxResults * 70 / 100
	default:
		opt.Limit = e.cfg.DefaultResults
	}
	if wantGeometry {
		opt.IncludeGeometry = true
	}
	if limit > 0 && limit < opt.Limit {
		opt.Limit = limit
	}
	return opt
}

// decorate attaches the population display color and, when geometry is
// present, simplifies it at the zoom tier tolerance.
func (e *Engine) decorate(recs []models.VillageRecord, zoom int, withGeometry bool) {
	tolerance := geometry.ZoomTolerance(zoom, e.cfg.LowDetailZoom, e.cfg.HighDetailZoom)
	for i := range recs {
		bucket := BucketFor(recs[i].Population)
		recs[i].Color = bucket.Color
		recs[i].ColorLabel = bucket.Label
		if !withGeometry || recs[i].Geometry == nil {
			continue
		}
		g, err := recs[i].Geometry.Orb()
		if err != nil {
			continue
		}
		simplified := models.GeometryFromOrb(geometry.SimplifyTolerance(g, tolerance))
		recs[i].Geometry = &simplified
	}
}

func validateBounds(q models.BoundsQuery) error {
	switch {
	case q.MinLat > q.MaxLat:
		return &InvalidBoundsError{Reason: "minLat greater than maxLat"}
	case q.MinLng > q.MaxLng:
		return &InvalidBoundsError{Reason: "minLng greater than maxLng"}
	case q.MinLat < -90 || q.MaxLat > 90:
		return &InvalidBoundsError{Reason: fmt.Sprintf("latitude outside [-90,90]: %g..%g", q.MinLat, q.MaxLat)}
	case q.MinLng < -180 || q.MaxLng > 180:
		return &InvalidBoundsError{Reason: fmt.Sprintf("longitude outside [-180,180]: %g..%g", q.MinLng, q.MaxLng)}
	}
	return nil
}
