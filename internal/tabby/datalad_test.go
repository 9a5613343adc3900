package tabby

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestIsSelfDescription(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/data/ds/.datalad/tabby/self/dataset@tby-crc1451v0.tsv", true},
		{"/data/ds/.datalad/tabby/self_dataset@tby-crc1451v0.tsv", true},
		{"/data/ds/.datalad/tabby/dataset@tby-crc1451v0.tsv", false},
		{"/data/ds/.datalad/tabby/project-a/dataset@tby-crc1451v0.tsv", false},
		{"/inbox/project-a/dataset@tby-crc1451v0.tsv", false},
	}
	for _, tc := range tests {
		if got := IsSelfDescription(tc.path); got != tc.want {
			t.Errorf("IsSelfDescription(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDatasetRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".datalad", "tabby", "self"), 0o755); err != nil {
		t.Fatal(err)
	}
	sheet := filepath.Join(root, ".datalad", "tabby", "self", "dataset@tby-crc1451v0.tsv")
	if err := os.WriteFile(sheet, []byte("name\tx\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := DatasetRoot(sheet)
	if !ok || got != root {
		t.Errorf("DatasetRoot(%q) = %q, %v; want %q", sheet, got, ok, root)
	}

	if _, ok := DatasetRoot(filepath.Join(t.TempDir(), "plain.tsv")); ok {
		t.Error("found a dataset root where none exists")
	}
}

func TestDataladID(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".datalad"), 0o755); err != nil {
		t.Fatal(err)
	}
	config := `[datalad "dataset"]
	id = 8f2c3fc2-e339-11ee-9251-f0d5bfbbc1dd
[datalad "branch"]
	id = something-else
`
	if err := os.WriteFile(filepath.Join(root, ".datalad", "config"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	id, err := DataladID(root)
	if err != nil {
		t.Fatalf("DataladID: %v", err)
	}
	if id != "8f2c3fc2-e339-11ee-9251-f0d5bfbbc1dd" {
		t.Errorf("id = %q", id)
	}

	if _, err := DataladID(t.TempDir()); err == nil {
		t.Error("DataladID without config did not fail")
	}
}

func TestDatasetSheets(t *testing.T) {
	root := t.TempDir()
	collection := filepath.Join(root, ".datalad", "tabby")
	for _, p := range []string{
		filepath.Join(collection, "project-a", "dataset@tby-crc1451v0.tsv"),
		filepath.Join(collection, "project-b", "dataset@tby-crc1451v0.tsv"),
		filepath.Join(collection, "project-a", "authors@tby-crc1451v0.tsv"),
	} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("name\tx\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sheets, err := DatasetSheets(context.Background(), root, false)
	if err != nil {
		t.Fatalf("DatasetSheets: %v", err)
	}
	if len(sheets) != 2 {
		t.Errorf("got %d sheets, want 2: %v", len(sheets), sheets)
	}
	for _, s := range sheets {
		if filepath.Base(s) != "dataset@tby-crc1451v0.tsv" {
			t.Errorf("unexpected sheet %q", s)
		}
	}

	empty, err := DatasetSheets(context.Background(), t.TempDir(), false)
	if err != nil || empty != nil {
		t.Errorf("DatasetSheets without collection = %v, %v", empty, err)
	}
}

func TestDatasetSheetsAnywhere(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	git("init", "-q")
	sheet := filepath.Join(root, "project-a", "dataset@tby-crc1451v0.tsv")
	if err := os.MkdirAll(filepath.Dir(sheet), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sheet, []byte("name\tx\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.tsv"), []byte("a\tb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	git("add", ".")

	sheets, err := DatasetSheets(context.Background(), root, true)
	if err != nil {
		t.Fatalf("DatasetSheets: %v", err)
	}
	if len(sheets) != 1 || sheets[0] != sheet {
		t.Errorf("got %v, want only %q", sheets, sheet)
	}
}

func TestSubdatasetPath(t *testing.T) {
	tests := []struct {
		tabby string
		root  string
		want  string
	}{
		{"/super/.datalad/tabby/project-a/dataset@tby-crc1451v0.tsv", "/super", "project-a"},
		{"/super/studies/study-1/dataset@tby-crc1451v0.tsv", "/super", "studies/study-1"},
		{"/super/.datalad/tabby/a/b/dataset@tby-crc1451v0.tsv", "/super", ".datalad/tabby/a/b"},
	}
	for _, tc := range tests {
		got, err := SubdatasetPath(tc.tabby, tc.root)
		if err != nil {
			t.Fatalf("SubdatasetPath(%q, %q): %v", tc.tabby, tc.root, err)
		}
		if got != tc.want {
			t.Errorf("SubdatasetPath(%q, %q) = %q, want %q", tc.tabby, tc.root, got, tc.want)
		}
	}
}
