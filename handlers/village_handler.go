package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"villagemap/models"
	"villagemap/query"
	"villagemap/store"
)

// VillageHandler serves the village query surface.
type VillageHandler struct {
	Engine *query.Engine
	Store  *store.VillageStore
}

// HandleList returns villages matching the query-string filters with
// zoom-adaptive detail.
func (h *VillageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, ok := parseFilters(q.Get("state"), q.Get("district"), q.Get("subdistrict"),
		q.Get("minPopulation"), q.Get("maxPopulation"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid population filter")
		return
	}

	zoom, _ := strconv.Atoi(q.Get("zoom"))
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	opts := query.ListOptions{
		Zoom:            zoom,
		Limit:           limit,
		IncludeGeometry: q.Get("includeGeometry") == "true",
	}

	recs, err := h.Engine.ListVillages(r.Context(), filters, opts)
	if err != nil {
		log.Printf("list villages: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeData(w, http.StatusOK, recs)
}

type boundsRequest struct {
	models.BoundsQuery
	State       string `json:"state,omitempty"`
	District    string `json:"district,omitempty"`
	Subdistrict string `json:"subdistrict,omitempty"`
}

// HandleInBounds returns villages whose bounding box overlaps the posted
// viewport.
func (h *VillageHandler) HandleInBounds(w http.ResponseWriter, r *http.Request) {
	var req boundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	filters := store.ListFilters{
		State:       req.State,
		District:    req.District,
		Subdistrict: req.Subdistrict,
	}

	recs, err := h.Engine.VillagesInBounds(r.Context(), req.BoundsQuery, filters)
	if err != nil {
		var invalid *query.InvalidBoundsError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		log.Printf("villages in bounds: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeData(w, http.StatusOK, recs)
}

// HandleDeleteAll drops every stored village. The only destruction path the
// dataset has; used before re-importing a full extract.
func (h *VillageHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteAll(r.Context())
	if err != nil {
		log.Printf("delete villages: %v", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func parseFilters(state, district, subdistrict, minPop, maxPop string) (store.ListFilters, bool) {
	f := store.ListFilters{State: state, District: district, Subdistrict: subdistrict}
	var ok bool
	if f.MinPopulation, ok = intParam(minPop); !ok {
		return f, false
	}
	if f.MaxPopulation, ok = intParam(maxPop); !ok {
		return f, false
	}
	return f, true
}
