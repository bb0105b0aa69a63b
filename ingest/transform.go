package ingest

import (
	"strconv"
	"strings"
	"time"

	"villagemap/geometry"
	"villagemap/models"
	"villagemap/shapefile"
)

// TransformFeature converts one raw feature into a storable record. Every
// failure is returned as data; nothing here escapes as a panic or aborts the
// stream.
func TransformFeature(raw shapefile.RawFeature) (models.VillageRecord, *IngestError) {
	if !geometry.ValidateShape(raw.Geometry) {
		return models.VillageRecord{}, &IngestError{
			Kind:    KindFeatureProcessing,
			Message: "invalid geometry shape",
			Context: featureContext(raw),
		}
	}

	now := time.Now().UTC()
	rec := models.VillageRecord{
		StateName:       SanitizeText(raw.Attributes[shapefile.FieldState]),
		DistrictName:    SanitizeText(raw.Attributes[shapefile.FieldDistrict]),
		SubdistrictName: SanitizeText(raw.Attributes[shapefile.FieldSubdistrict]),
		VillageName:     SanitizeText(raw.Attributes[shapefile.FieldVillage]),
		CensusID:        SanitizeText(raw.Attributes[shapefile.FieldCensusID]),
		Population:      parsePopulation(raw.Attributes[shapefile.FieldPopulation]),
		Centroid:        geometry.Centroid(raw.Geometry),
		Bounds:          geometry.BoundingBox(raw.Geometry),
		Area:            geometry.Area(raw.Geometry),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	g := models.GeometryFromOrb(raw.Geometry)
	rec.Geometry = &g

	// state/district/subdistrict are the grouping keys for every downstream
	// query; a record without them is unreachable.
	if rec.StateName == "" || rec.DistrictName == "" || rec.SubdistrictName == "" {
		return models.VillageRecord{}, &IngestError{
			Kind:    KindFeatureProcessing,
			Message: "missing state/district/subdistrict identity fields",
			Context: featureContext(raw),
		}
	}
	return rec, nil
}

// SanitizeText trims whitespace and strips angle brackets so attribute values
// are safe to echo into rendered contexts downstream.
func SanitizeText(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return strings.TrimSpace(s)
}

// parsePopulation defaults unparsable or absent values to 0. Census exports
// leave the field blank or set to "NA" for uninhabited polygons; treat that as
// data cleansing, not an error.
func parsePopulation(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

func featureContext(raw shapefile.RawFeature) string {
	if v := strings.TrimSpace(raw.Attributes[shapefile.FieldVillage]); v != "" {
		return "village " + v
	}
	if id := strings.TrimSpace(raw.Attributes[shapefile.FieldCensusID]); id != "" {
		return "census id " + id
	}
	return ""
}
