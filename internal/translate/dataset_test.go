package translate

import (
	"context"
	"testing"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/mint"
)

// testContext is a cut-down convention context of the kind tabby
// records carry after loading.
func testContext() map[string]any {
	return map[string]any{
		"schema":      "https://schema.org/",
		"dcterms":     "https://purl.org/dc/terms/",
		"nfo":         "https://www.semanticdesktop.org/ontologies/2007/03/22/nfo/#",
		"name":        "schema:name",
		"title":       "schema:title",
		"crc-project": "schema:ResearchProject",
		"homepage":    "schema:mainEntityOfPage",
		"files": map[string]any{
			"@id": "dcterms:hasPart",
			"@context": map[string]any{
				"path[POSIX]": "schema:name",
				"size[bytes]": "nfo:fileSize",
				"url":         "schema:contentUrl",
			},
		},
	}
}

func TestCompact(t *testing.T) {
	record := map[string]any{
		"@context":    testContext(),
		"name":        "example-dataset",
		"title":       "An example dataset",
		"crc-project": "Z03",
		"homepage":    "https://github.com/sfb1451/example-dataset",
		"files": []any{
			map[string]any{
				"path[POSIX]": "data/file.dat",
				"size[bytes]": "1024",
				"url":         "https://example.com/data/file.dat",
			},
		},
	}

	compacted, err := Compact(record)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if got := str(compacted["name"]); got != "example-dataset" {
		t.Errorf("name = %q", got)
	}
	if got := str(compacted["title"]); got != "An example dataset" {
		t.Errorf("title = %q", got)
	}
	if got := firstString(compacted["sfbProject"]); got != "Z03" {
		t.Errorf("sfbProject = %q", got)
	}
	if got := firstString(compacted["sfbHomepage"]); got != "https://github.com/sfb1451/example-dataset" {
		t.Errorf("sfbHomepage = %q", got)
	}

	files := asList(compacted["fileList"])
	if len(files) != 1 {
		t.Fatalf("fileList has %d entries, want 1", len(files))
	}
	entry, ok := files[0].(map[string]any)
	if !ok {
		t.Fatalf("file entry is %T", files[0])
	}
	if got := literal(entry["path"]); got != "data/file.dat" {
		t.Errorf("file path = %q", got)
	}
	if got := literal(entry["contentbytesize"]); got != "1024" {
		t.Errorf("contentbytesize = %q", got)
	}
}

func TestCompactDropsUnmappedKeys(t *testing.T) {
	compacted, err := Compact(map[string]any{
		"@context":      testContext(),
		"name":          "example-dataset",
		"internal-note": "not part of any vocabulary",
	})
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if _, ok := compacted["internal-note"]; ok {
		t.Error("unmapped key survived compaction")
	}
	if _, ok := compacted["name"]; !ok {
		t.Error("mapped key lost in compaction")
	}
}

func TestDataset(t *testing.T) {
	compacted := map[string]any{
		"name":        "example-dataset",
		"title":       "An example dataset",
		"description": "What the dataset contains.",
		"version":     "0.1.0",
		"license":     "https://creativecommons.org/licenses/by/4.0/",
		"keywords":    "motor control",
		"sfbProject":  "Z03",
		"authors": []any{
			map[string]any{"name": "Ada Lovelace", "orcid": "0000-0001-2345-6789"},
		},
		"sfbHomepage": []any{
			"https://github.com/sfb1451/example-dataset",
			"https://example.com/lab-page",
		},
		"sfbDataController": map[string]any{
			"name":  "Ada Lovelace",
			"email": "ada@example.com",
		},
	}

	item := Dataset(context.Background(), compacted, Options{})

	if want := mint.DatasetID("example-dataset", "Z03"); item.DatasetID != want {
		t.Errorf("dataset id = %q, want %q", item.DatasetID, want)
	}
	if item.DatasetVersion != "0.1.0" {
		t.Errorf("dataset version = %q", item.DatasetVersion)
	}
	if item.Type != catalog.TypeDataset {
		t.Errorf("type = %q", item.Type)
	}
	if item.Name != "An example dataset" {
		t.Errorf("name = %q, want the record title", item.Name)
	}
	if item.Description != "What the dataset contains." {
		t.Errorf("description = %q", item.Description)
	}
	if item.License == nil || item.License.URL != "https://creativecommons.org/licenses/by/4.0/" {
		t.Errorf("license = %+v", item.License)
	}
	if len(item.Keywords) != 1 || item.Keywords[0] != "motor control" {
		t.Errorf("keywords = %v", item.Keywords)
	}
	if len(item.Authors) != 1 || len(item.Authors[0].Identifiers) != 1 {
		t.Errorf("authors = %+v", item.Authors)
	}
	if len(item.URL) != 1 || item.URL[0] != "https://github.com/sfb1451/example-dataset" {
		t.Errorf("url = %v", item.URL)
	}
	if item.AccessRequestContact == nil || item.AccessRequestContact.FamilyName != "Lovelace" {
		t.Errorf("access request contact = %+v", item.AccessRequestContact)
	}
	if got := item.SourceName(); got != catalog.SourceTabby {
		t.Errorf("source name = %q", got)
	}

	if len(item.AdditionalDisplay) != 1 {
		t.Fatalf("additional display = %+v", item.AdditionalDisplay)
	}
	display := item.AdditionalDisplay[0]
	if display.Name != "SFB1451" {
		t.Errorf("display name = %q", display.Name)
	}
	content := display.Content
	if _, ok := content["@context"]; !ok {
		t.Error("display content has no @context")
	}
	if content["CRC project"] != "Z03" {
		t.Errorf("CRC project = %v", content["CRC project"])
	}
	controller, ok := content["data controller"].(map[string]any)
	if !ok || controller["@type"] != "https://schema.org/Person" {
		t.Errorf("data controller = %v", content["data controller"])
	}
	if _, ok := content["used for"]; ok {
		t.Error("absent usage property shown in display content")
	}
	if _, ok := content["sample (organism)"]; ok {
		t.Error("absent organism property shown in display content")
	}
}

func TestFiles(t *testing.T) {
	compacted := map[string]any{
		"fileList": []any{
			map[string]any{
				"path":            "data/file.dat",
				"contentbytesize": map[string]any{"@value": "1024"},
				"url":             "https://example.com/data/file.dat",
			},
			map[string]any{"name": "README.md"},
		},
	}

	items := Files(compacted, "deadbeef", "0.1.0")
	if len(items) != 2 {
		t.Fatalf("got %d file items, want 2", len(items))
	}
	first := items[0]
	if first.Type != catalog.TypeFile || first.DatasetID != "deadbeef" || first.DatasetVersion != "0.1.0" {
		t.Errorf("file identity = %+v", first)
	}
	if first.Path != "data/file.dat" {
		t.Errorf("path = %q", first.Path)
	}
	if first.ContentBytesize != 1024 {
		t.Errorf("contentbytesize = %d", first.ContentBytesize)
	}
	if first.URL != "https://example.com/data/file.dat" {
		t.Errorf("url = %q", first.URL)
	}
	if items[1].Path != "README.md" {
		t.Errorf("name fallback path = %q", items[1].Path)
	}

	if got := Files(map[string]any{}, "id", "v"); got != nil {
		t.Errorf("Files without fileList = %v, want nil", got)
	}
}
