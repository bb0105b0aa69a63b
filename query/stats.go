package query

import (
	"context"
	"fmt"

	cache "github.com/patrickmn/go-cache"

	"villagemap/store"
)

// StatsStore is the grouping capability the aggregator consumes.
type StatsStore interface {
	PopulationDistribution(ctx context.Context, f store.ListFilters) ([]store.DistributionBucket, error)
}

// StatsAggregator is a thin consumer of the store's bucket aggregation, with
// an optional in-process cache in front of it.
type StatsAggregator struct {
	store StatsStore
	cache *cache.Cache
}

// NewStatsAggregator wires the aggregator; c may be nil to disable caching.
func NewStatsAggregator(s StatsStore, c *cache.Cache) *StatsAggregator {
	return &StatsAggregator{store: s, cache: c}
}

// PopulationDistribution returns per-bucket counts and population sums for
// villages matching the filters.
func (a *StatsAggregator) PopulationDistribution(ctx context.Context, f store.ListFilters) ([]store.DistributionBucket, error) {
	key := distributionKey(f)
	if a.cache != nil {
		if v, ok := a.cache.Get(key); ok {
			return v.([]store.DistributionBucket), nil
		}
	}
	out, err := a.store.PopulationDistribution(ctx, f)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Set(key, out, cache.DefaultExpiration)
	}
	return out, nil
}

func distributionKey(f store.ListFilters) string {
	minPop, maxPop := -1, -1
	if f.MinPopulation != nil {
		minPop = *f.MinPopulation
	}
	if f.MaxPopulation != nil {
		maxPop = *f.MaxPopulation
	}
	return fmt.Sprintf("popdist:%s:%s:%s:%d:%d", f.State, f.District, f.Subdistrict, minPop, maxPop)
}
