package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Centroid is the representative point for a village, used for low-zoom rendering.
type Centroid struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Bounds is the axis-aligned lat/lng box fully containing a geometry.
type Bounds struct {
	MinLat float64 `bson:"minLat" json:"minLat"`
	MaxLat float64 `bson:"maxLat" json:"maxLat"`
	MinLng float64 `bson:"minLng" json:"minLng"`
	MaxLng float64 `bson:"maxLng" json:"maxLng"`
}

// Geometry holds a GeoJSON geometry as stored in mongo. Coordinates is left
// untyped so documents round-trip through bson and back out as JSON without
// reshaping; Orb() decodes when the actual coordinates are needed.
type Geometry struct {
	Type        string      `bson:"type" json:"type"`
	Coordinates interface{} `bson:"coordinates" json:"coordinates"`
}

// GeometryFromOrb converts an orb geometry into the stored GeoJSON form.
func GeometryFromOrb(g orb.Geometry) Geometry {
	if g == nil {
		return Geometry{}
	}
	raw, err := json.Marshal(geojson.NewGeometry(g))
	if err != nil {
		return Geometry{}
	}
	var out Geometry
	if err := json.Unmarshal(raw, &out); err != nil {
		return Geometry{}
	}
	return out
}

// Orb decodes the stored geometry back into an orb geometry. Coordinates may be
// native Go slices or bson primitive arrays; both marshal to the same JSON.
func (g Geometry) Orb() (orb.Geometry, error) {
	if g.Type == "" {
		return nil, fmt.Errorf("empty geometry")
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	geo, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return geo.Geometry(), nil
}

// VillageRecord is the persisted village entity. Centroid, bounds and area are
// derived from the geometry at ingest time and never mutated afterwards.
type VillageRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	StateName       string             `bson:"stateName" json:"stateName"`
	DistrictName    string             `bson:"districtName" json:"districtName"`
	SubdistrictName string             `bson:"subdistrictName" json:"subdistrictName"`
	VillageName     string             `bson:"villageName" json:"villageName"`
	CensusID        string             `bson:"censusId,omitempty" json:"censusId,omitempty"`
	Population      int                `bson:"population" json:"population"`
	Geometry        *Geometry          `bson:"geometry,omitempty" json:"geometry,omitempty"`
	Centroid        Centroid           `bson:"centroid" json:"centroid"`
	Bounds          Bounds             `bson:"bounds" json:"bounds"`
	Area            float64            `bson:"area" json:"area"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Display attributes attached at query time, never persisted.
	Color      string `bson:"-" json:"color,omitempty"`
	ColorLabel string `bson:"-" json:"colorLabel,omitempty"`
}

// BoundsQuery is a client viewport plus its zoom level.
type BoundsQuery struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
	Zoom   int     `json:"zoom"`
}

// Bounds returns just the box portion of the query.
func (q BoundsQuery) Bounds() Bounds {
	return Bounds{MinLat: q.MinLat, MaxLat: q.MaxLat, MinLng: q.MinLng, MaxLng: q.MaxLng}
}

// InsertFailure reports one rejected record inside a bulk write.
type InsertFailure struct {
	Index   int
	Message string
}
