package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"

	"villagemap/shapefile"
)

// writeUpload stages a real shapefile component set on disk the way the upload
// handler would, one unit-square polygon per attribute row.
func writeUpload(t *testing.T, dir string, rows [][6]string) []shapefile.FileDescriptor {
	t.Helper()

	shpPath := filepath.Join(dir, "upload.shp")
	w, err := shp.Create(shpPath, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	w.SetFields([]shp.Field{
		shp.StringField("STATE_NAME", 30),
		shp.StringField("DISTRICT_N", 30),
		shp.StringField("SUBDISTRIC", 30),
		shp.StringField("VILLAGE_NA", 30),
		shp.StringField("TOT_P", 10),
		shp.StringField("CENSUS_COD", 16),
	})
	for i, row := range rows {
		x := float64(i)
		ring := []shp.Point{
			{X: x, Y: 0}, {X: x, Y: 1}, {X: x + 1, Y: 1}, {X: x + 1, Y: 0}, {X: x, Y: 0},
		}
		poly := &shp.Polygon{
			Box:       shp.Box{MinX: x, MinY: 0, MaxX: x + 1, MaxY: 1},
			NumParts:  1,
			NumPoints: int32(len(ring)),
			Parts:     []int32{0},
			Points:    ring,
		}
		w.Write(poly)
		for col, val := range row {
			w.WriteAttribute(i, col, val)
		}
	}
	w.Close()

	for _, ext := range []string{".shx", ".prj"} {
		if err := os.WriteFile(filepath.Join(dir, "upload"+ext), []byte{}, 0644); err != nil {
			t.Fatalf("write %s: %v", ext, err)
		}
	}

	var files []shapefile.FileDescriptor
	for _, ext := range []string{".shp", ".dbf", ".shx", ".prj"} {
		files = append(files, shapefile.FileDescriptor{
			Name: "upload" + ext,
			Path: filepath.Join(dir, "upload"+ext),
		})
	}
	return files
}

func TestRunHappyPath(t *testing.T) {
	files := writeUpload(t, t.TempDir(), [][6]string{
		{"Maharashtra", "Pune", "Haveli", "Wagholi", "1200", "1"},
		{"Maharashtra", "Pune", "Haveli", "Lohegaon", "3400", "2"},
	})
	store := &fakeStore{}

	res := Run(context.Background(), files, store, 500, nil)
	if !res.Success {
		t.Fatalf("success = false: %s", res.Message)
	}
	if res.ProcessedCount != 2 || res.ErrorCount != 0 {
		t.Fatalf("result = %d/%d, want 2/0", res.ProcessedCount, res.ErrorCount)
	}

	// Uploaded files are deleted after a successful run.
	for _, f := range files {
		if _, err := os.Stat(f.Path); !os.IsNotExist(err) {
			t.Errorf("%s still on disk after ingest", f.Name)
		}
	}
}

func TestRunMixedFeatures(t *testing.T) {
	files := writeUpload(t, t.TempDir(), [][6]string{
		{"Maharashtra", "Pune", "Haveli", "Wagholi", "1200", "1"},
		{"", "", "", "Orphan", "10", "2"}, // no identity fields
		{"Maharashtra", "Pune", "Haveli", "Lohegaon", "", "3"},
	})
	store := &fakeStore{}

	res := Run(context.Background(), files, store, 500, nil)
	if !res.Success {
		t.Fatalf("success = false: %s", res.Message)
	}
	if res.ProcessedCount != 2 || res.ErrorCount != 1 {
		t.Fatalf("result = %d/%d, want 2 processed and 1 skipped", res.ProcessedCount, res.ErrorCount)
	}
	if len(res.Errors) != 1 || res.Errors[0].Kind != KindFeatureProcessing {
		t.Fatalf("errors = %+v, want one feature_processing entry", res.Errors)
	}
}

func TestRunMissingComponents(t *testing.T) {
	dir := t.TempDir()
	files := writeUpload(t, dir, [][6]string{{"A", "B", "C", "D", "1", "1"}})
	files = files[:2] // drop .shx and .prj from the descriptor list

	res := Run(context.Background(), files, &fakeStore{}, 500, nil)
	if res.Success {
		t.Fatal("expected failure for incomplete component set")
	}
	if res.ErrorCount != 1 || res.ProcessedCount != 0 {
		t.Fatalf("result = %d/%d, want 0 processed and 1 error", res.ProcessedCount, res.ErrorCount)
	}
	if res.Errors[0].Kind != KindComponentMissing {
		t.Errorf("kind = %s, want %s", res.Errors[0].Kind, KindComponentMissing)
	}
}

func TestRunFatalOpen(t *testing.T) {
	dir := t.TempDir()
	files := writeUpload(t, dir, [][6]string{{"A", "B", "C", "D", "1", "1"}})

	// Corrupt the pair by removing the attribute file from disk while keeping
	// its descriptor, so validation passes but open fails.
	if err := os.Remove(files[1].Path); err != nil {
		t.Fatalf("remove dbf: %v", err)
	}

	store := &fakeStore{}
	res := Run(context.Background(), files, store, 500, nil)
	if res.Success {
		t.Fatal("expected failure when the attribute file cannot be opened")
	}
	if res.ProcessedCount != 0 || res.ErrorCount != 1 {
		t.Fatalf("result = %d/%d, want 0/1", res.ProcessedCount, res.ErrorCount)
	}
	if res.Errors[0].Kind != KindFatalOpen {
		t.Errorf("kind = %s, want %s", res.Errors[0].Kind, KindFatalOpen)
	}
	if len(store.batches) != 0 {
		t.Error("store was written despite fatal open")
	}

	// Cleanup still runs on the fatal path.
	for _, f := range files {
		if _, err := os.Stat(f.Path); !os.IsNotExist(err) {
			t.Errorf("%s still on disk after fatal ingest", f.Name)
		}
	}
}
