package shapefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// RawFeature pairs one geometry with the attribute row that accompanies it
// positionally in the .dbf. It only lives for the duration of a streaming pass.
type RawFeature struct {
	Geometry   orb.Geometry
	Attributes map[string]string
}

// OpenError means the geometry/attribute file pair could not be opened. Fatal:
// the whole import aborts before any batch is formed.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open shapefile component %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Reader streams features from a .shp/.dbf pair in lockstep. The sequence is
// finite and single-pass; a caller that needs metadata and then the features
// opens the pair twice. Close releases both underlying files together.
type Reader struct {
	shp    *shp.Reader
	fields []string
	cur    RawFeature
	done   bool
}

// Open opens the geometry file and its sibling attribute file. go-shp opens
// the .dbf lazily, so both are probed up front to make a missing half fail
// here rather than mid-stream.
func Open(shpPath string) (*Reader, error) {
	dbfPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".dbf"
	for _, p := range []string{shpPath, dbfPath} {
		f, err := os.Open(p)
		if err != nil {
			return nil, &OpenError{Path: p, Err: err}
		}
		f.Close()
	}
	sr, err := shp.Open(shpPath)
	if err != nil {
		return nil, &OpenError{Path: shpPath, Err: err}
	}
	r := &Reader{shp: sr}
	for _, f := range sr.Fields() {
		r.fields = append(r.fields, strings.ToLower(strings.TrimRight(f.String(), "\x00")))
	}
	return r, nil
}

// FieldNames returns the lower-cased attribute column names.
func (r *Reader) FieldNames() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Next advances both files to the next usable feature. Records without a
// usable geometry are skipped here, not errored; content validation belongs
// to the transformer.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	for r.shp.Next() {
		_, shape := r.shp.Shape()
		geom := shapeToGeometry(shape)
		if geom == nil {
			continue
		}
		attrs := make(map[string]string, len(r.fields))
		for i, name := range r.fields {
			attrs[name] = strings.TrimSpace(strings.TrimRight(r.shp.Attribute(i), "\x00"))
		}
		r.cur = RawFeature{Geometry: geom, Attributes: attrs}
		return true
	}
	r.done = true
	return false
}

// Feature returns the feature the last Next call produced.
func (r *Reader) Feature() RawFeature { return r.cur }

// Close releases the .shp and .dbf handles.
func (r *Reader) Close() error {
	r.done = true
	return r.shp.Close()
}

// shapeToGeometry converts a shapefile record into an orb geometry. Returns
// nil for record types or contents this pipeline cannot use.
func shapeToGeometry(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Polygon:
		return ringsToGeometry(partsToRings(s.Parts, s.Points))
	case *shp.PolygonZ:
		return ringsToGeometry(partsToRings(s.Parts, s.Points))
	case *shp.PolyLine:
		if len(s.Points) == 0 {
			return nil
		}
		ls := make(orb.LineString, 0, len(s.Points))
		for _, p := range s.Points {
			ls = append(ls, orb.Point{p.X, p.Y})
		}
		return ls
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	default:
		return nil
	}
}

func partsToRings(parts []int32, points []shp.Point) []orb.Ring {
	if len(points) == 0 {
		return nil
	}
	if len(parts) == 0 {
		parts = []int32{0}
	}
	var rings []orb.Ring
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 3 {
			continue
		}
		ring := make(orb.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// ringsToGeometry groups flat shapefile rings into a Polygon or MultiPolygon.
// Shapefiles wind outer rings clockwise and holes counter-clockwise; a ring
// that is not a hole, or that arrives before any outer ring, starts a new
// polygon.
func ringsToGeometry(rings []orb.Ring) orb.Geometry {
	if len(rings) == 0 {
		return nil
	}
	var polys orb.MultiPolygon
	for _, ring := range rings {
		if len(polys) == 0 || signedRingArea(ring) < 0 {
			polys = append(polys, orb.Polygon{ring})
			continue
		}
		polys[len(polys)-1] = append(polys[len(polys)-1], ring)
	}
	if len(polys) == 1 {
		return polys[0]
	}
	return polys
}

func signedRingArea(ring orb.Ring) float64 {
	sum := 0.0
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		sum += ring[i].X()*ring[j].Y() - ring[j].X()*ring[i].Y()
	}
	return sum / 2
}
