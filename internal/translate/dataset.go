package translate

import (
	"context"
	"strconv"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/lookup"
	"github.com/psychoinformatics-de/tabbycat/internal/mint"
	"github.com/psychoinformatics-de/tabbycat/internal/registry"
)

// Options carries the collaborators dataset assembly may use. Any of
// them may be nil; the affected fields then stay as provided.
type Options struct {
	Lookup   *lookup.Tables
	Resolver Resolver
	Terms    TermLookup
}

// Dataset assembles the catalog dataset item for a compacted record.
// The dataset id is minted from the record's name and CRC project, so
// repeated loads of the same dataset land on the same catalog entry.
func Dataset(ctx context.Context, compacted map[string]any, opts Options) *catalog.DatasetItem {
	id := mint.DatasetID(str(compacted["name"]), firstString(compacted["sfbProject"]))

	item := catalog.NewDatasetItem(id, str(compacted["version"]),
		catalog.SourceTabby, catalog.SourceVersion)
	// the title reads better on a catalog page than the short name
	item.Name = str(compacted["title"])
	item.Description = joinedText(compacted["description"])
	item.DOI = DOI(compacted["doi"])
	item.License = License(compacted["license"])
	item.Authors = Authors(compacted["authors"])
	item.Keywords = Keywords(compacted["keywords"])
	item.Funding = Funding(compacted["funding"], opts.Lookup)
	item.Publications = Publications(ctx, compacted["publications"], opts.Resolver)
	item.AccessRequestContact = AccessContact(compacted["sfbDataController"])
	item.URL = HomepageAsURL(compacted["sfbHomepage"])
	item.AdditionalDisplay = additionalDisplay(ctx, compacted, opts.Terms)
	return item
}

// Files shapes the compacted file list into catalog file items carrying
// the dataset's identity. Compaction may leave the path as a plain
// string or as a value object, both forms are handled.
func Files(compacted map[string]any, id, version string) []catalog.FileItem {
	var items []catalog.FileItem
	for _, entry := range asList(compacted["fileList"]) {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := catalog.NewFileItem(id, version, catalog.SourceTabby, catalog.SourceVersion)
		item.Path = literal(m["path"])
		if item.Path == "" {
			item.Path = literal(m["name"])
		}
		if size := literal(m["contentbytesize"]); size != "" {
			if n, err := strconv.ParseInt(size, 10, 64); err == nil {
				item.ContentBytesize = n
			}
		}
		item.URL = literal(m["url"])
		items = append(items, *item)
	}
	return items
}

// additionalDisplay collects the CRC-specific properties into the
// catalog's extra display tab. Values are shaped for linked data use
// and absent properties are dropped; the embedded context maps the
// display keys to their vocabulary.
func additionalDisplay(ctx context.Context, compacted map[string]any, terms TermLookup) []catalog.AdditionalDisplay {
	content := map[string]any{
		"@context":               displayContext(),
		"homepage":               Homepage(compacted["sfbHomepage"]),
		"data controller":        DataController(compacted["sfbDataController"]),
		"sample (organism)":      OLSTerms(ctx, compacted["sfbSampleOrganism"], terms, registry.ReprNCBITaxon),
		"sample (organism part)": OLSTerms(ctx, compacted["sfbSamplePart"], terms, registry.ReprUberon),
		"CRC project":            compacted["sfbProject"],
		"used for":               UsedFor(compacted["sfbUsedFor"]),
	}
	for key, value := range content {
		if value == nil {
			delete(content, key)
		}
	}
	return []catalog.AdditionalDisplay{{
		Name:    "SFB1451",
		Icon:    "fa-solid fa-flask",
		Content: content,
	}}
}

func displayContext() map[string]any {
	return map[string]any{
		"homepage":               "https://schema.org/mainEntityOfPage",
		"data controller":        "https://w3id.org/dpv#hasDataController",
		"sample (organism)":      "https://openminds.ebrains.eu/controlledTerms/Species",
		"sample (organism part)": "https://openminds.ebrains.eu/controlledTerms/UBERONParcellation",
		"CRC project":            "https://schema.org/ResearchProject",
		"used for":               "http://www.w3.org/ns/prov#hadUsage",
	}
}

// firstString returns v itself or the first entry when v is a list.
func firstString(v any) string {
	entries := asList(v)
	if len(entries) == 0 {
		return ""
	}
	return literal(entries[0])
}
