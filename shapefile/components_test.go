package shapefile

import (
	"errors"
	"testing"
)

func descriptors(names ...string) []FileDescriptor {
	out := make([]FileDescriptor, 0, len(names))
	for _, n := range names {
		out = append(out, FileDescriptor{Name: n, Path: "/tmp/" + n})
	}
	return out
}

func TestValidateComponentsComplete(t *testing.T) {
	set, err := ValidateComponents(descriptors("v.shp", "v.dbf", "v.shx", "v.prj", "v.cpg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Mandatory) != 4 {
		t.Errorf("mandatory count = %d, want 4", len(set.Mandatory))
	}
	if len(set.Optional) != 1 {
		t.Errorf("optional count = %d, want 1", len(set.Optional))
	}
	if set.Shp() != "/tmp/v.shp" || set.Dbf() != "/tmp/v.dbf" {
		t.Errorf("component paths wrong: shp=%s dbf=%s", set.Shp(), set.Dbf())
	}
}

func TestValidateComponentsMissing(t *testing.T) {
	_, err := ValidateComponents(descriptors("v.shp", "v.dbf", "v.shx"))
	var missing *MissingComponentsError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T, want MissingComponentsError", err)
	}
	if len(missing.Missing) != 1 || missing.Missing[0] != ".prj" {
		t.Fatalf("missing = %v, want [.prj]", missing.Missing)
	}
}

func TestValidateComponentsMissingOrder(t *testing.T) {
	_, err := ValidateComponents(descriptors("v.cpg"))
	var missing *MissingComponentsError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T, want MissingComponentsError", err)
	}
	want := []string{".shp", ".dbf", ".shx", ".prj"}
	if len(missing.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing.Missing, want)
	}
	for i := range want {
		if missing.Missing[i] != want[i] {
			t.Fatalf("missing = %v, want %v", missing.Missing, want)
		}
	}
}

func TestValidateComponentsUnknownExtension(t *testing.T) {
	_, err := ValidateComponents(descriptors("v.shp", "v.dbf", "v.shx", "v.prj", "v.zip"))
	if err == nil {
		t.Fatal("expected error for unknown extension")
	}
	var missing *MissingComponentsError
	if errors.As(err, &missing) {
		t.Fatal("unknown extension should not be reported as missing components")
	}
}

func TestValidateComponentsCaseInsensitive(t *testing.T) {
	set, err := ValidateComponents(descriptors("V.SHP", "V.DBF", "V.SHX", "V.PRJ"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Shp() == "" {
		t.Fatal("upper-case extension not keyed to .shp")
	}
}
