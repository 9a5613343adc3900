package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	good := NewDatasetItem("some-id", "some-version", SourceTabby, SourceVersion)
	good.Name = "Test dataset"

	goodFile := NewFileItem("some-id", "some-version", SourceTabby, SourceVersion)
	goodFile.Path = "data/file.dat"

	noVersion := NewDatasetItem("some-id", "", SourceTabby, SourceVersion)
	noVersion.Name = "Test dataset"

	tests := []struct {
		name    string
		item    Item
		wantErr string
	}{
		{"valid dataset", good, ""},
		{"valid file", goodFile, ""},
		{"missing version", noVersion, "dataset_version"},
		{"missing name", NewDatasetItem("id", "v", SourceTabby, SourceVersion), "name"},
		{"file without path", NewFileItem("id", "v", SourceTabby, SourceVersion), "path"},
		{"bad type", &DatasetItem{ItemBase: ItemBase{Type: "blob", DatasetID: "id", DatasetVersion: "v"}, Name: "x"}, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.item)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestAddWritesJSONLines(t *testing.T) {
	cat := New(t.TempDir())

	ds := NewDatasetItem("dsid", "dsver", SourceTabby, SourceVersion)
	ds.Name = "Test dataset"
	if err := cat.Add(ds); err != nil {
		t.Fatalf("Add dataset: %v", err)
	}

	file := NewFileItem("dsid", "dsver", SourceTabby, SourceVersion)
	file.Path = "data/file.dat"
	file.ContentBytesize = 42
	if err := cat.Add(file); err != nil {
		t.Fatalf("Add file: %v", err)
	}

	path := filepath.Join(cat.Dir, "metadata", "dsid", "dsver", "tabby.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening entries: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("parsing line: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["type"] != "dataset" || lines[1]["type"] != "file" {
		t.Errorf("unexpected item order: %v, %v", lines[0]["type"], lines[1]["type"])
	}
	if lines[1]["contentbytesize"] != float64(42) {
		t.Errorf("file size not preserved: %v", lines[1]["contentbytesize"])
	}
	if _, ok := lines[0]["license"]; ok {
		t.Error("empty license should be omitted from the record")
	}
}

func TestAddAttachesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfg, []byte(`{"catalog_name": "test"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cat := New(filepath.Join(dir, "catalog"))
	cat.ConfigFile = cfg

	ds := NewDatasetItem("dsid", "dsver", SourceTabby, SourceVersion)
	ds.Name = "Test dataset"
	if err := cat.Add(ds); err != nil {
		t.Fatalf("Add: %v", err)
	}

	attached := filepath.Join(cat.Dir, "metadata", "dsid", "config.json")
	data, err := os.ReadFile(attached)
	if err != nil {
		t.Fatalf("config not attached: %v", err)
	}
	if !strings.Contains(string(data), "catalog_name") {
		t.Errorf("unexpected config content: %s", data)
	}
}

func TestRemove(t *testing.T) {
	cat := New(t.TempDir())

	err := cat.Remove("dsid", "dsver")
	if !errors.Is(err, ErrIncompleteRemoval) {
		t.Errorf("Remove on empty catalog: got %v, want ErrIncompleteRemoval", err)
	}

	ds := NewDatasetItem("dsid", "dsver", SourceTabby, SourceVersion)
	ds.Name = "Test dataset"
	if err := cat.Add(ds); err != nil {
		t.Fatal(err)
	}
	if err := cat.Remove("dsid", "dsver"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cat.Dir, "metadata", "dsid")); !os.IsNotExist(err) {
		t.Error("dataset dir should be gone after removing its only version")
	}
}

func TestRemoveKeepsOtherVersions(t *testing.T) {
	cat := New(t.TempDir())
	for _, ver := range []string{"v1", "v2"} {
		ds := NewDatasetItem("dsid", ver, SourceTabby, SourceVersion)
		ds.Name = "Test dataset"
		if err := cat.Add(ds); err != nil {
			t.Fatal(err)
		}
	}
	if err := cat.Remove("dsid", "v1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cat.Dir, "metadata", "dsid", "v2")); err != nil {
		t.Errorf("other version should survive: %v", err)
	}
}

func TestSetHome(t *testing.T) {
	cat := New(t.TempDir())

	if err := cat.SetHome("dsid", "dsver", false); err != nil {
		t.Fatalf("SetHome: %v", err)
	}
	home, err := cat.Home()
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if home == nil || home.DatasetID != "dsid" || home.DatasetVersion != "dsver" {
		t.Errorf("got home %+v", home)
	}

	if err := cat.SetHome("other", "ver", false); err == nil {
		t.Error("second SetHome without overwrite should fail")
	}
	if err := cat.SetHome("other", "ver", true); err != nil {
		t.Errorf("SetHome with overwrite: %v", err)
	}
	home, err = cat.Home()
	if err != nil {
		t.Fatal(err)
	}
	if home.DatasetID != "other" {
		t.Errorf("home not overwritten: %+v", home)
	}
}

func TestHomeUnset(t *testing.T) {
	cat := New(t.TempDir())
	home, err := cat.Home()
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if home != nil {
		t.Errorf("expected no home, got %+v", home)
	}
}

func TestAddMany(t *testing.T) {
	cat := New(t.TempDir())

	good := NewFileItem("dsid", "dsver", SourceTabby, SourceVersion)
	good.Path = "a.dat"
	bad := NewFileItem("", "", SourceTabby, SourceVersion)
	alsoGood := NewFileItem("dsid", "dsver", SourceTabby, SourceVersion)
	alsoGood.Path = "b.dat"

	err := cat.AddMany([]Item{good, bad, alsoGood})
	if err == nil {
		t.Fatal("expected aggregated error")
	}

	data, readErr := os.ReadFile(filepath.Join(cat.Dir, "metadata", "dsid", "dsver", "tabby.jsonl"))
	if readErr != nil {
		t.Fatalf("reading entries: %v", readErr)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("got %d entries, want 2 (good items written despite the bad one)", got)
	}
}
