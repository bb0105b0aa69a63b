package query

// PopulationBucket drives the display color for a village. The Min thresholds
// match the distribution bucket boundaries so map legend and stats agree.
type PopulationBucket struct {
	Label string
	Color string
	Min   int
}

var populationBuckets = []PopulationBucket{
	{Label: "Very Small (0-499)", Color: "#ffffb2", Min: 0},
	{Label: "Small (500-999)", Color: "#fed976", Min: 500},
	{Label: "Medium Small (1000-1999)", Color: "#feb24c", Min: 1000},
	{Label: "Medium (2000-4999)", Color: "#fd8d3c", Min: 2000},
	{Label: "Medium Large (5000-9999)", Color: "#fc4e2a", Min: 5000},
	{Label: "Large (10000-19999)", Color: "#e31a1c", Min: 10000},
	{Label: "Very Large (20000+)", Color: "#b10026", Min: 20000},
}

// BucketFor returns the display bucket for a population count. Deterministic
// threshold lookup; negative counts fall into the first bucket.
func BucketFor(population int) PopulationBucket {
	bucket := populationBuckets[0]
	for _, b := range populationBuckets {
		if population < b.Min {
			break
		}
		bucket = b
	}
	return bucket
}
