package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villagemap/models"
)

const villagesCollection = "villages"

// ListFilters mirrors the exact-match and range filtering the query surface
// accepts.
type ListFilters struct {
	State         string
	District      string
	Subdistrict   string
	MinPopulation *int
	MaxPopulation *int
}

func (f ListFilters) toBSON() bson.M {
	q := bson.M{}
	if f.State != "" {
		q["stateName"] = f.State
	}
	if f.District != "" {
		q["districtName"] = f.District
	}
	if f.Subdistrict != "" {
		q["subdistrictName"] = f.Subdistrict
	}
	pop := bson.M{}
	if f.MinPopulation != nil {
		pop["$gte"] = *f.MinPopulation
	}
	if f.MaxPopulation != nil {
		pop["$lte"] = *f.MaxPopulation
	}
	if len(pop) > 0 {
		q["population"] = pop
	}
	return q
}

// QueryOptions carries the projection and cap the viewport engine selected.
type QueryOptions struct {
	IncludeGeometry bool
	Limit           int64
}

// VillageStore is the mongo-backed persistence layer for village records.
type VillageStore struct {
	coll *mongo.Collection
}

func NewVillageStore(db *mongo.Database) *VillageStore {
	return &VillageStore{coll: db.Collection(villagesCollection)}
}

// EnsureIndexes creates the indexes every query path relies on. censusId is
// sparse unique so duplicate census identifiers are rejected at write time
// while records without one still insert.
func (s *VillageStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "censusId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{
			{Key: "stateName", Value: 1},
			{Key: "districtName", Value: 1},
			{Key: "subdistrictName", Value: 1},
		}},
		{Keys: bson.D{{Key: "bounds.minLat", Value: 1}, {Key: "bounds.maxLat", Value: 1}}},
		{Keys: bson.D{{Key: "bounds.minLng", Value: 1}, {Key: "bounds.maxLng", Value: 1}}},
		{Keys: bson.D{{Key: "population", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create village indexes: %w", err)
	}
	return nil
}

// BulkInsert writes records unordered so one rejected record does not abort
// its siblings. Per-record failures come back as data; only transport-level
// errors are returned as an error.
func (s *VillageStore) BulkInsert(ctx context.Context, records []models.VillageRecord) (int, []models.InsertFailure, error) {
	if len(records) == 0 {
		return 0, nil, nil
	}
	writes := make([]mongo.WriteModel, 0, len(records))
	for i := range records {
		writes = append(writes, mongo.NewInsertOneModel().SetDocument(records[i]))
	}
	res, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))

	var failures []models.InsertFailure
	if err != nil {
		bwe, ok := err.(mongo.BulkWriteException)
		if !ok {
			return 0, nil, fmt.Errorf("bulk insert villages: %w", err)
		}
		for _, we := range bwe.WriteErrors {
			failures = append(failures, models.InsertFailure{Index: we.Index, Message: we.Message})
		}
	}
	inserted := 0
	if res != nil {
		inserted = int(res.InsertedCount)
	}
	return inserted, failures, nil
}

// List returns villages matching the filters with the given projection/cap.
func (s *VillageStore) List(ctx context.Context, f ListFilters, opt QueryOptions) ([]models.VillageRecord, error) {
	return s.find(ctx, f.toBSON(), opt)
}

// InBounds returns villages whose stored bounding box overlaps the query box.
// Axis-aligned box overlap only; the true polygon is never tested, so results
// near viewport edges can include false positives.
func (s *VillageStore) InBounds(ctx context.Context, b models.Bounds, f ListFilters, opt QueryOptions) ([]models.VillageRecord, error) {
	q := f.toBSON()
	q["bounds.minLat"] = bson.M{"$lte": b.MaxLat}
	q["bounds.maxLat"] = bson.M{"$gte": b.MinLat}
	q["bounds.minLng"] = bson.M{"$lte": b.MaxLng}
	q["bounds.maxLng"] = bson.M{"$gte": b.MinLng}
	return s.find(ctx, q, opt)
}

func (s *VillageStore) find(ctx context.Context, filter bson.M, opt QueryOptions) ([]models.VillageRecord, error) {
	fo := options.Find()
	if opt.Limit > 0 {
		fo.SetLimit(opt.Limit)
	}
	if !opt.IncludeGeometry {
		fo.SetProjection(bson.M{"geometry": 0})
	}
	cur, err := s.coll.Find(ctx, filter, fo)
	if err != nil {
		return nil, fmt.Errorf("query villages: %w", err)
	}
	var out []models.VillageRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode villages: %w", err)
	}
	return out, nil
}

// Count returns the total number of stored villages.
func (s *VillageStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count villages: %w", err)
	}
	return n, nil
}

// DeleteAll removes every village record. This is the only destruction path;
// records are never mutated or individually deleted by the pipeline.
func (s *VillageStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete villages: %w", err)
	}
	return res.DeletedCount, nil
}
