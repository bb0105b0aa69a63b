package query

import (
	"context"
	"errors"
	"testing"

	cache "github.com/patrickmn/go-cache"
	"github.com/paulmach/orb"

	"villagemap/models"
	"villagemap/store"
)

// fakeReadStore returns canned records and captures the query options the
// engine derived from the zoom level.
type fakeReadStore struct {
	records []models.VillageRecord
	lastOpt store.QueryOptions
	calls   int
}

func (f *fakeReadStore) List(_ context.Context, _ store.ListFilters, opt store.QueryOptions) ([]models.VillageRecord, error) {
	f.calls++
	f.lastOpt = opt
	return f.records, nil
}

func (f *fakeReadStore) InBounds(_ context.Context, _ models.Bounds, _ store.ListFilters, opt store.QueryOptions) ([]models.VillageRecord, error) {
	f.calls++
	f.lastOpt = opt
	return f.records, nil
}

func sampleRecords() []models.VillageRecord {
	g := models.GeometryFromOrb(orb.Polygon{orb.Ring{
		{73.0, 18.0}, {73.1, 18.0}, {73.1, 18.1}, {73.0, 18.1}, {73.0, 18.0},
	}})
	return []models.VillageRecord{
		{VillageName: "Wagholi", Population: 1200, Geometry: &g},
		{VillageName: "Lohegaon", Population: 25000},
	}
}

func TestListVillagesHighZoom(t *testing.T) {
	fs := &fakeReadStore{records: sampleRecords()}
	e := NewEngine(fs, DefaultConfig())

	recs, err := e.ListVillages(context.Background(), store.ListFilters{}, ListOptions{Zoom: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fs.lastOpt.IncludeGeometry {
		t.Error("high zoom should request geometry")
	}
	if fs.lastOpt.Limit != 1000 {
		t.Errorf("limit = %d, want max results 1000", fs.lastOpt.Limit)
	}
	if recs[0].Geometry == nil {
		t.Error("geometry stripped at high zoom")
	}
}

func TestListVillagesLowZoom(t *testing.T) {
	fs := &fakeReadStore{records: sampleRecords()}
	e := NewEngine(fs, DefaultConfig())

	_, err := e.ListVillages(context.Background(), store.ListFilters{}, ListOptions{Zoom: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.lastOpt.IncludeGeometry {
		t.Error("low zoom should not request geometry")
	}
	if fs.lastOpt.Limit != 200 {
		t.Errorf("limit = %d, want default results 200", fs.lastOpt.Limit)
	}
}

func TestListVillagesMidZoom(t *testing.T) {
	fs := &fakeReadStore{records: sampleRecords()}
	e := NewEngine(fs, DefaultConfig())

	_, err := e.ListVillages(context.Background(), store.ListFilters{}, ListOptions{Zoom: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.lastOpt.IncludeGeometry {
		t.Error("mid zoom should not request geometry")
	}
	if fs.lastOpt.Limit != 700 {
		t.Errorf("limit = %d, want 70%% of max (700)", fs.lastOpt.Limit)
	}
}

func TestListVillagesClientLimitOnlyLowers(t *testing.T) {
	fs := &fakeReadStore{records: sampleRecords()}
	e := NewEngine(fs, DefaultConfig())
	ctx := context.Background()

	e.ListVillages(ctx, store.ListFilters{}, ListOptions{Zoom: 15, Limit: 50})
	if fs.lastOpt.Limit != 50 {
		t.Errorf("limit = %d, want client cap 50", fs.lastOpt.Limit)
	}

	e.ListVillages(ctx, store.ListFilters{}, ListOptions{Zoom: 15, Limit: 5000})
	if fs.lastOpt.Limit != 1000 {
		t.Errorf("limit = %d, client limit must not raise the cap", fs.lastOpt.Limit)
	}
}

func TestListVillagesGeometryOverride(t *testing.T) {
	fs := &fakeReadStore{records: sampleRecords()}
	e := NewEngine(fs, DefaultConfig())

	e.ListVillages(context.Background(), store.ListFilters{}, ListOptions{Zoom: 5, IncludeGeometry: true})
	if !fs.lastOpt.IncludeGeometry {
		t.Error("explicit geometry request ignored at low zoom")
	}
}

func TestListVillagesColors(t *testing.T) {
	fs := &fakeReadStore{records: sampleRecords()}
	e := NewEngine(fs, DefaultConfig())

	recs, err := e.ListVillages(context.Background(), store.ListFilters{}, ListOptions{Zoom: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].ColorLabel != "Medium Small (1000-1999)" || recs[0].Color != "#feb24c" {
		t.Errorf("population 1200 decorated as %q/%q", recs[0].ColorLabel, recs[0].Color)
	}
	if recs[1].ColorLabel != "Very Large (20000+)" || recs[1].Color != "#b10026" {
		t.Errorf("population 25000 decorated as %q/%q", recs[1].ColorLabel, recs[1].Color)
	}
}

func TestVillagesInBoundsInvalid(t *testing.T) {
	fs := &fakeReadStore{}
	e := NewEngine(fs, DefaultConfig())
	ctx := context.Background()

	cases := []models.BoundsQuery{
		{MinLat: 10, MaxLat: 5, MinLng: 0, MaxLng: 1},
		{MinLat: 0, MaxLat: 1, MinLng: 10, MaxLng: 5},
		{MinLat: -95, MaxLat: 1, MinLng: 0, MaxLng: 1},
		{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 181},
	}
	for i, q := range cases {
		_, err := e.VillagesInBounds(ctx, q, store.ListFilters{})
		var ib *InvalidBoundsError
		if !errors.As(err, &ib) {
			t.Errorf("case %d: error = %v, want InvalidBoundsError", i, err)
		}
	}
	if fs.calls != 0 {
		t.Errorf("store touched %d times for invalid bounds", fs.calls)
	}
}

func TestVillagesInBoundsValid(t *testing.T) {
	fs := &fakeReadStore{records: sampleRecords()}
	e := NewEngine(fs, DefaultConfig())

	q := models.BoundsQuery{MinLat: 17, MaxLat: 19, MinLng: 72, MaxLng: 74, Zoom: 13}
	recs, err := e.VillagesInBounds(context.Background(), q, store.ListFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if !fs.lastOpt.IncludeGeometry {
		t.Error("zoom 13 viewport should include geometry")
	}
}

func TestBucketFor(t *testing.T) {
	cases := []struct {
		population int
		label      string
	}{
		{-3, "Very Small (0-499)"},
		{0, "Very Small (0-499)"},
		{499, "Very Small (0-499)"},
		{500, "Small (500-999)"},
		{1200, "Medium Small (1000-1999)"},
		{1999, "Medium Small (1000-1999)"},
		{2000, "Medium (2000-4999)"},
		{7500, "Medium Large (5000-9999)"},
		{10000, "Large (10000-19999)"},
		{20000, "Very Large (20000+)"},
		{1000000, "Very Large (20000+)"},
	}
	for _, tc := range cases {
		if got := BucketFor(tc.population); got.Label != tc.label {
			t.Errorf("BucketFor(%d) = %q, want %q", tc.population, got.Label, tc.label)
		}
	}
}

// fakeStatsStore counts aggregation calls so caching can be observed.
type fakeStatsStore struct {
	calls int
}

func (f *fakeStatsStore) PopulationDistribution(_ context.Context, _ store.ListFilters) ([]store.DistributionBucket, error) {
	f.calls++
	return []store.DistributionBucket{{BucketLowerBound: 0, Count: 3, TotalPopulation: 900, AvgPopulation: 300}}, nil
}

func TestStatsAggregatorCaching(t *testing.T) {
	fs := &fakeStatsStore{}
	agg := NewStatsAggregator(fs, cache.New(cache.NoExpiration, 0))
	ctx := context.Background()

	f := store.ListFilters{State: "Maharashtra"}
	if _, err := agg.PopulationDistribution(ctx, f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := agg.PopulationDistribution(ctx, f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.calls != 1 {
		t.Errorf("store calls = %d, want 1 with a warm cache", fs.calls)
	}

	// A different filter set must miss the cache.
	other := store.ListFilters{State: "Karnataka"}
	if _, err := agg.PopulationDistribution(ctx, other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.calls != 2 {
		t.Errorf("store calls = %d, want 2 after distinct filters", fs.calls)
	}
}

func TestStatsAggregatorNoCache(t *testing.T) {
	fs := &fakeStatsStore{}
	agg := NewStatsAggregator(fs, nil)
	ctx := context.Background()

	agg.PopulationDistribution(ctx, store.ListFilters{})
	agg.PopulationDistribution(ctx, store.ListFilters{})
	if fs.calls != 2 {
		t.Errorf("store calls = %d, want 2 with caching disabled", fs.calls)
	}
}
