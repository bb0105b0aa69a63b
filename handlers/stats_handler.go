package handlers

import (
	"log"
	"net/http"

	"villagemap/query"
)

// StatsHandler serves aggregate statistics over the village dataset.
type StatsHandler struct {
	Stats *query.StatsAggregator
}

// HandlePopulationDistribution returns per-bucket population stats for
// villages matching the query-string filters.
func (h *StatsHandler) HandlePopulationDistribution(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, ok := parseFilters(q.Get("state"), q.Get("district"), q.Get("subdistrict"),
		q.Get("minPopulation"), q.Get("maxPopulation"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid population filter")
		return
	}

	buckets, err := h.Stats.PopulationDistribution(r.Context(), filters)
	if err != nil {
		log.Printf("population distribution: %v", err)
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}
	writeData(w, http.StatusOK, buckets)
}
