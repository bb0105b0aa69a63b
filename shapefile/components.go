package shapefile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DBF column names for the village attributes this pipeline understands.
// DBF limits names to 10 characters, hence the truncated forms.
const (
	FieldState       = "state_name"
	FieldDistrict    = "district_n"
	FieldSubdistrict = "subdistric"
	FieldVillage     = "village_na"
	FieldPopulation  = "tot_p"
	FieldCensusID    = "census_cod"
)

var (
	mandatoryExtensions = []string{".shp", ".dbf", ".shx", ".prj"}
	optionalExtensions  = []string{".cpg", ".sbn", ".sbx"}
)

// FileDescriptor is one uploaded component file saved to disk.
type FileDescriptor struct {
	Name string // original upload name
	Path string // location on disk
}

// ComponentSet partitions an upload into mandatory and optional shapefile
// parts, keyed by lower-cased extension.
type ComponentSet struct {
	Mandatory map[string]FileDescriptor
	Optional  map[string]FileDescriptor
}

// Shp returns the path of the geometry file.
func (c ComponentSet) Shp() string { return c.Mandatory[".shp"].Path }

// Dbf returns the path of the attribute file.
func (c ComponentSet) Dbf() string { return c.Mandatory[".dbf"].Path }

// MissingComponentsError lists every mandatory extension absent from an upload.
type MissingComponentsError struct {
	Missing []string
}

func (e *MissingComponentsError) Error() string {
	return "missing required shapefile components: " + strings.Join(e.Missing, ", ")
}

// ValidateComponents checks that the uploaded file group contains the
// mandatory shapefile component set before any parsing is attempted. Files
// with extensions outside the allow-list are rejected outright. Pure name
// inspection, no I/O.
func ValidateComponents(files []FileDescriptor) (ComponentSet, error) {
	set := ComponentSet{
		Mandatory: make(map[string]FileDescriptor),
		Optional:  make(map[string]FileDescriptor),
	}
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		switch {
		case containsExt(mandatoryExtensions, ext):
			set.Mandatory[ext] = f
		case containsExt(optionalExtensions, ext):
			set.Optional[ext] = f
		default:
			return ComponentSet{}, fmt.Errorf("unsupported file type: %q", f.Name)
		}
	}
	var missing []string
	for _, ext := range mandatoryExtensions {
		if _, ok := set.Mandatory[ext]; !ok {
			missing = append(missing, ext)
		}
	}
	if len(missing) > 0 {
		return ComponentSet{}, &MissingComponentsError{Missing: missing}
	}
	return set, nil
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
