// Package translate turns tabby records into catalog metadata items.
//
// A loaded record is first compacted against the catalog context, which
// renames tabby vocabulary to the catalog's keys, then shaped field by
// field into typed catalog records. Registry lookups enrich
// publications and ontology terms along the way; a failed lookup never
// fails the translation, the affected field just stays as provided.
package translate

import (
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// CatalogContext returns the JSON-LD context that maps tabby vocabulary
// onto catalog keys. IRIs are spelled out so the catalog can render
// them as working links without expansion tricks of its own.
func CatalogContext() map[string]any {
	return map[string]any{
		"schema":      "https://schema.org/",
		"bibo":        "https://purl.org/ontology/bibo/",
		"dcterms":     "https://purl.org/dc/terms/",
		"nfo":         "https://www.semanticdesktop.org/ontologies/2007/03/22/nfo/#",
		"obo":         "https://purl.obolibrary.org/obo/",
		"openminds":   "https://openminds.ebrains.eu/controlledTerms/",
		"name":        "schema:name",
		"title":       "schema:title",
		"description": "schema:description",
		"doi":         "bibo:doi",
		"version":     "schema:version",
		"license":     "schema:license",
		"authors":     "schema:author",
		"orcid":       "obo:IAO_0000708",
		"email":       "schema:email",
		"keywords":    "schema:keywords",
		"funding": map[string]any{
			"@id": "schema:funding",
			"@context": map[string]any{
				"funder":     "schema:funder",
				"identifier": "schema:identifier",
			},
		},
		"publications": map[string]any{
			"@id": "schema:citation",
			"@context": map[string]any{
				"doi":           "schema:identifier",
				"datePublished": "schema:datePublished",
				"citation":      "schema:citation",
			},
		},
		"fileList": map[string]any{
			"@id": "dcterms:hasPart",
			"@context": map[string]any{
				"contentbytesize": "nfo:fileSize",
				"md5sum":          "obo:NCIT_C171276",
				"path":            "schema:name",
				"url":             "schema:contentUrl",
			},
		},
		"address":           "schema:PostalAddress",
		"sfbHomepage":       "schema:mainEntityOfPage",
		"sfbDataController": "https://w3id.org/dpv#hasDataController",
		"sfbUsedFor": map[string]any{
			"@id": "http://www.w3.org/ns/prov#hadUsage",
			"@context": map[string]any{
				"url": "schema:url",
			},
		},
		"sfbProject":        "schema:ResearchProject",
		"sfbSampleOrganism": "openminds:Species",
		"sfbSamplePart":     "openminds:UBERONParcellation",
	}
}

// Compact renames a tabby record's keys to catalog vocabulary by
// JSON-LD compaction against the catalog context. Keys the record's own
// context does not map to IRIs do not survive compaction.
func Compact(record map[string]any) (map[string]any, error) {
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.ProcessingMode = ld.JsonLd_1_1

	compacted, err := proc.Compact(record, map[string]any{"@context": CatalogContext()}, opts)
	if err != nil {
		return nil, fmt.Errorf("compacting record against catalog context: %w", err)
	}
	return compacted, nil
}
