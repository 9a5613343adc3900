package catalog

// Metadata item types.
const (
	TypeDataset = "dataset"
	TypeFile    = "file"
)

// Metadata source names used by this pipeline.
const (
	SourceTabby  = "tabby"
	SourceManual = "manual_addition"
)

// SourceVersion is the version reported for metadata produced here.
const SourceVersion = "0.1.0"

// ItemBase carries the fields every metadata item needs.
type ItemBase struct {
	Type            string           `json:"type"`
	DatasetID       string           `json:"dataset_id"`
	DatasetVersion  string           `json:"dataset_version"`
	MetadataSources *MetadataSources `json:"metadata_sources,omitempty"`
}

// Base implements Item.
func (b *ItemBase) Base() *ItemBase { return b }

// SourceName returns the name of the first metadata source, or "unknown".
func (b *ItemBase) SourceName() string {
	if b.MetadataSources != nil && len(b.MetadataSources.Sources) > 0 {
		return b.MetadataSources.Sources[0].SourceName
	}
	return "unknown"
}

// Item is a catalog metadata item, either a dataset or a file.
type Item interface {
	Base() *ItemBase
}

// MetadataSources describes where a metadata item came from.
type MetadataSources struct {
	KeySourceMap map[string][]string `json:"key_source_map,omitempty"`
	Sources      []Source            `json:"sources"`
}

// Source identifies one metadata extractor and its version.
type Source struct {
	SourceName    string `json:"source_name"`
	SourceVersion string `json:"source_version"`
	AgentName     string `json:"agent_name,omitempty"`
	AgentEmail    string `json:"agent_email,omitempty"`
}

// DatasetItem is the metadata record for one dataset version.
type DatasetItem struct {
	ItemBase
	Name                 string              `json:"name,omitempty"`
	Description          string              `json:"description,omitempty"`
	DOI                  string              `json:"doi,omitempty"`
	License              *License            `json:"license,omitempty"`
	Authors              []Author            `json:"authors,omitempty"`
	Keywords             []string            `json:"keywords,omitempty"`
	Funding              []Grant             `json:"funding,omitempty"`
	Publications         []Publication       `json:"publications,omitempty"`
	AccessRequestContact *Contact            `json:"access_request_contact,omitempty"`
	URL                  []string            `json:"url,omitempty"`
	AdditionalDisplay    []AdditionalDisplay `json:"additional_display,omitempty"`
	Subdatasets          []Subdataset        `json:"subdatasets,omitempty"`
}

// FileItem is the metadata record for one file in a dataset.
type FileItem struct {
	ItemBase
	Path            string `json:"path,omitempty"`
	ContentBytesize int64  `json:"contentbytesize,omitempty"`
	URL             string `json:"url,omitempty"`
}

// License names a dataset license. The catalog displays name and links url.
type License struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Author is a catalog-schema author.
type Author struct {
	Name            string       `json:"name,omitempty"`
	Email           string       `json:"email,omitempty"`
	GivenName       string       `json:"givenName,omitempty"`
	FamilyName      string       `json:"familyName,omitempty"`
	HonorificSuffix string       `json:"honorificSuffix,omitempty"`
	Identifiers     []Identifier `json:"identifiers,omitempty"`
}

// Identifier is a named identifier, e.g. an ORCID.
type Identifier struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// Contact is the access request contact for a dataset.
type Contact struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Publication is a catalog-schema publication. Authors is always an
// array, possibly empty, as the catalog schema requires.
type Publication struct {
	Type              string   `json:"type,omitempty"`
	Title             string   `json:"title,omitempty"`
	DOI               string   `json:"doi,omitempty"`
	DatePublished     string   `json:"datePublished,omitempty"`
	PublicationOutlet string   `json:"publicationOutlet,omitempty"`
	Authors           []Author `json:"authors"`
}

// Grant is a funding item. The schema.org type lets catalog templates
// apply grant-specific rendering rules.
type Grant struct {
	Type          string `json:"@type,omitempty"`
	Funder        string `json:"funder,omitempty"`
	Name          string `json:"name,omitempty"`
	Identifier    string `json:"identifier,omitempty"`
	AlternateName string `json:"alternateName,omitempty"`
	IsPartOf      string `json:"isPartOf,omitempty"`
}

// AdditionalDisplay is an extra tab rendered on a dataset page.
type AdditionalDisplay struct {
	Name    string         `json:"name"`
	Icon    string         `json:"icon,omitempty"`
	Content map[string]any `json:"content"`
}

// Subdataset links a dataset to a subdataset it contains.
type Subdataset struct {
	DatasetPath string `json:"dataset_path"`
	DatasetID   string `json:"dataset_id"`
	Version     string `json:"version"`
}

func newSources(name, version string) *MetadataSources {
	return &MetadataSources{
		Sources: []Source{{SourceName: name, SourceVersion: version}},
	}
}

// NewDatasetItem scaffolds a dataset metadata item with the fields
// required by the catalog schema.
func NewDatasetItem(id, version, sourceName, sourceVersion string) *DatasetItem {
	return &DatasetItem{
		ItemBase: ItemBase{
			Type:            TypeDataset,
			DatasetID:       id,
			DatasetVersion:  version,
			MetadataSources: newSources(sourceName, sourceVersion),
		},
	}
}

// NewFileItem scaffolds a file metadata item. Path is left to the
// caller, the one per-file field that always differs.
func NewFileItem(id, version, sourceName, sourceVersion string) *FileItem {
	return &FileItem{
		ItemBase: ItemBase{
			Type:            TypeFile,
			DatasetID:       id,
			DatasetVersion:  version,
			MetadataSources: newSources(sourceName, sourceVersion),
		},
	}
}
