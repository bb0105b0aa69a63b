package shapefile

// Metadata summarizes an uploaded file pair without ingesting it.
type Metadata struct {
	FeatureCount      int      `json:"featureCount"`
	FieldNames        []string `json:"fieldNames"`
	HasRequiredFields bool     `json:"hasRequiredFields"`
}

var requiredFields = []string{FieldState, FieldDistrict, FieldSubdistrict}

// ExtractMetadata opens the file pair and walks it once to count features and
// collect field names. The streaming reader is single-pass, so ingestion after
// this re-opens the same files; both operations stay independently re-entrant.
func ExtractMetadata(set ComponentSet) (Metadata, error) {
	r, err := Open(set.Shp())
	if err != nil {
		return Metadata{}, err
	}
	defer r.Close()

	md := Metadata{FieldNames: r.FieldNames()}
	for r.Next() {
		md.FeatureCount++
	}
	md.HasRequiredFields = hasAllFields(md.FieldNames, requiredFields)
	return md, nil
}

func hasAllFields(names, required []string) bool {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	for _, r := range required {
		if !present[r] {
			return false
		}
	}
	return true
}
