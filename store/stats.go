package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PopulationBoundaries are the fixed bucket edges for distribution stats. The
// last bucket is open-ended.
var PopulationBoundaries = []int{0, 500, 1000, 2000, 5000, 10000, 20000}

// DistributionBucket is one population band of the distribution.
type DistributionBucket struct {
	BucketLowerBound int     `json:"bucketLowerBound"`
	Count            int     `json:"count"`
	TotalPopulation  int64   `json:"totalPopulation"`
	AvgPopulation    float64 `json:"avgPopulation"`
}

// PopulationDistribution buckets matching villages by population using the
// store's grouping capability ($bucket). Out-of-range populations land in the
// open-ended default bucket keyed by the last boundary.
func (s *VillageStore) PopulationDistribution(ctx context.Context, f ListFilters) ([]DistributionBucket, error) {
	boundaries := bson.A{}
	for _, b := range PopulationBoundaries {
		boundaries = append(boundaries, b)
	}

	pipeline := mongo.Pipeline{}
	if m := f.toBSON(); len(m) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: m}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$bucket", Value: bson.M{
		"groupBy":    "$population",
		"boundaries": boundaries,
		"default":    PopulationBoundaries[len(PopulationBoundaries)-1],
		"output": bson.M{
			"count":           bson.M{"$sum": 1},
			"totalPopulation": bson.M{"$sum": "$population"},
			"avgPopulation":   bson.M{"$avg": "$population"},
		},
	}}})

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("population distribution: %w", err)
	}

	var rows []struct {
		ID              interface{} `bson:"_id"`
		Count           int         `bson:"count"`
		TotalPopulation int64       `bson:"totalPopulation"`
		AvgPopulation   float64     `bson:"avgPopulation"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode distribution: %w", err)
	}

	out := make([]DistributionBucket, 0, len(rows))
	for _, r := range rows {
		out = append(out, DistributionBucket{
			BucketLowerBound: toInt(r.ID),
			Count:            r.Count,
			TotalPopulation:  r.TotalPopulation,
			AvgPopulation:    r.AvgPopulation,
		})
	}
	return out, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
