package mint

import (
	"strings"
	"testing"
)

func TestDatasetID(t *testing.T) {
	tests := []struct {
		name    string
		dataset string
		project string
	}{
		{"simple", "example-dataset", "z03"},
		{"uppercase project", "example-dataset", "Z03"},
		{"other project", "example-dataset", "a05"},
		{"other dataset", "another-dataset", "z03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := DatasetID(tt.dataset, tt.project)
			second := DatasetID(tt.dataset, tt.project)
			if first != second {
				t.Errorf("DatasetID not deterministic: %s != %s", first, second)
			}
			if len(first) != 36 {
				t.Errorf("DatasetID returned %q, want canonical UUID form", first)
			}
			if first[14] != '5' {
				t.Errorf("DatasetID returned %q, want version 5 UUID", first)
			}
		})
	}
}

func TestDatasetIDProjectCase(t *testing.T) {
	if DatasetID("example-dataset", "Z03") != DatasetID("example-dataset", "z03") {
		t.Error("project code should not be case sensitive")
	}
}

func TestDatasetIDDistinct(t *testing.T) {
	seen := map[string]string{}
	for _, pair := range [][2]string{
		{"ds-one", "a01"},
		{"ds-one", "a02"},
		{"ds-two", "a01"},
		{"ds-two", "a02"},
	} {
		id := DatasetID(pair[0], pair[1])
		if prev, ok := seen[id]; ok {
			t.Errorf("id collision between %v and %s", pair, prev)
		}
		seen[id] = pair[0] + "/" + pair[1]
	}
}

func TestFromFormat(t *testing.T) {
	id, err := FromFormat("sfb1451.{project}.{name}", map[string]string{
		"name":    "example-dataset",
		"project": "z03",
	})
	if err != nil {
		t.Fatalf("FromFormat: %v", err)
	}
	if id != DatasetID("example-dataset", "z03") {
		t.Error("FromFormat and DatasetID disagree for the same seed")
	}
}

func TestFromFormatMissingField(t *testing.T) {
	_, err := FromFormat("{dataset_id}", map[string]string{"name": "x"})
	if err == nil {
		t.Fatal("expected error for unresolved placeholder")
	}
	if !strings.Contains(err.Error(), "dataset_id") {
		t.Errorf("error should name the placeholder, got: %v", err)
	}
}

func TestIDStable(t *testing.T) {
	if ID("seed") != ID("seed") {
		t.Error("ID not deterministic")
	}
	if ID("seed") == ID("other") {
		t.Error("distinct seeds minted the same id")
	}
}
