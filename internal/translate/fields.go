package translate

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/lookup"
	"github.com/psychoinformatics-de/tabbycat/internal/registry"
)

const (
	dfgName      = "Deutsche Forschungsgemeinschaft (DFG)"
	crcGrantID   = "431549029"
	crcGrantName = "SFB 1451: Key mechanisms of motor control in health and disease"
	geprisURL    = "https://gepris.dfg.de/gepris/projekt/"
	grantType    = "https://schema.org/Grant"
)

// Resolver resolves publication metadata from external registries.
// *registry.Registry satisfies it.
type Resolver interface {
	Publication(ctx context.Context, doi string) *catalog.Publication
	Agency(ctx context.Context, doi string) string
	PublicationXML(ctx context.Context, doi string) *catalog.Publication
}

// TermLookup resolves ontology terms. *registry.Registry satisfies it.
type TermLookup interface {
	Term(ctx context.Context, ontology, iri string) *registry.Term
}

// str returns v when it is a string, and "" otherwise.
func str(v any) string {
	s, _ := v.(string)
	return s
}

// asList normalizes a compacted value to a slice. JSON-LD compaction
// collapses single-element arrays to scalars, so both shapes occur.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// literal extracts the string content of a compacted value, which may
// be a bare string or a JSON-LD value object such as {"@value": "42"}.
func literal(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		return literal(t["@value"])
	}
	return ""
}

// joinedText flattens a possibly multi-valued text field into one
// string, separating entries by blank lines.
func joinedText(v any) string {
	var parts []string
	for _, entry := range asList(v) {
		if s := literal(entry); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Authors shapes the compacted author entries into catalog authors. An
// orcid property folds into the catalog's identifier list.
func Authors(v any) []catalog.Author {
	if v == nil {
		return nil
	}
	var authors []catalog.Author
	for _, entry := range asList(v) {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		author := catalog.Author{
			Name:            str(m["name"]),
			Email:           str(m["email"]),
			GivenName:       str(m["givenName"]),
			FamilyName:      str(m["familyName"]),
			HonorificSuffix: str(m["honorificSuffix"]),
		}
		if orcid := str(m["orcid"]); orcid != "" {
			author.Identifiers = []catalog.Identifier{{Name: "ORCID", Identifier: orcid}}
		}
		authors = append(authors, author)
	}
	return authors
}

// License shapes a license URL into the catalog's license record. The
// URL doubles as the display name; anything nicer needs a vocabulary
// the records do not carry.
func License(v any) *catalog.License {
	s := str(v)
	if s == "" {
		return nil
	}
	return &catalog.License{Name: s, URL: s}
}

// DOI normalizes a DOI to its URL form.
func DOI(v any) string {
	s := str(v)
	if s == "" || strings.HasPrefix(s, "http") {
		return s
	}
	return "https://doi.org/" + s
}

// Keywords normalizes keywords to a list.
func Keywords(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		keywords := make([]string, 0, len(t))
		for _, entry := range t {
			if s := literal(entry); s != "" {
				keywords = append(keywords, s)
			}
		}
		return keywords
	}
	return nil
}

// Publications resolves the compacted publication entries through the
// registries. Entries with a DOI are looked up on doi.org first, and
// through Crossref's XML query interface when doi.org has nothing but
// Crossref is the registration agency. Entries that cannot be resolved
// keep their citation text as the title.
func Publications(ctx context.Context, v any, resolver Resolver) []catalog.Publication {
	if v == nil {
		return nil
	}
	var pubs []catalog.Publication
	for _, entry := range asList(v) {
		m, ok := entry.(map[string]any)
		if !ok {
			if s := str(entry); s != "" {
				pubs = append(pubs, catalog.Publication{Title: s, Authors: []catalog.Author{}})
			}
			continue
		}
		if doi := DOI(m["doi"]); doi != "" && resolver != nil {
			if pub := resolver.Publication(ctx, doi); pub != nil {
				pubs = append(pubs, *pub)
				continue
			}
			if resolver.Agency(ctx, doi) == "Crossref" {
				if pub := resolver.PublicationXML(ctx, doi); pub != nil {
					pubs = append(pubs, *pub)
					continue
				}
			}
		}
		pub := catalog.Publication{
			Title:         literal(m["citation"]),
			DOI:           str(m["doi"]),
			DatePublished: literal(m["datePublished"]),
			Authors:       []catalog.Author{},
		}
		if pub.Title == "" {
			pub.Title = literal(m["title"])
		}
		pubs = append(pubs, pub)
	}
	return pubs
}

// Funding shapes the compacted funding entries into catalog grants. DFG
// grant numbers become GEPRIS links, and grant numbers of this CRC's
// subprojects additionally pull name and project link from the lookup
// tables, with the CRC's own grant inserted before the first of them.
func Funding(v any, tables *lookup.Tables) []catalog.Grant {
	if v == nil {
		return nil
	}
	var grants []catalog.Grant
	for _, entry := range asList(v) {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		grant := catalog.Grant{
			Type:       strings.Replace(str(m["@type"]), "schema:", "https://schema.org/", 1),
			Funder:     str(m["funder"]),
			Name:       str(m["name"]),
			Identifier: str(m["identifier"]),
		}
		var parent *catalog.Grant
		if grant.Funder == "DFG" {
			grant.Funder = dfgName
			if id := grant.Identifier; strings.HasPrefix(id, crcGrantID+"-") {
				cut := strings.LastIndex(id, "-")
				project, subproject := id[:cut], id[cut+1:]
				parent = &catalog.Grant{
					Funder:     dfgName,
					Name:       crcGrantName,
					Identifier: geprisURL + crcGrantID,
					Type:       grantType,
				}
				if info, ok := tables.Project(subproject); ok {
					grant.Name = info.Name
					grant.Identifier = info.Identifier
					grant.AlternateName = strings.ToUpper(subproject)
					grant.IsPartOf = geprisURL + project
				} else {
					grant = *parent
					parent = nil
				}
			} else if grant.Identifier != "" {
				grant.Identifier = geprisURL + grant.Identifier
			}
		}
		if parent != nil {
			grants = append(grants, *parent)
		}
		grants = append(grants, grant)
	}
	return grants
}

// AccessContact derives the access request contact from the first data
// controller. The controller's name splits at the last space into given
// and family name.
func AccessContact(v any) *catalog.Contact {
	entries := asList(v)
	if len(entries) == 0 {
		return nil
	}
	m, ok := entries[0].(map[string]any)
	if !ok {
		return nil
	}
	given, family := splitName(str(m["name"]))
	return &catalog.Contact{
		GivenName:  given,
		FamilyName: family,
		Email:      str(m["email"]),
	}
}

func splitName(name string) (given, family string) {
	if i := strings.LastIndexByte(name, ' '); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// DataController marks controller entries as schema.org Persons for the
// display context. Properties already present win over the added type.
func DataController(v any) any {
	switch t := v.(type) {
	case []any:
		controllers := make([]any, 0, len(t))
		for _, entry := range t {
			controllers = append(controllers, DataController(entry))
		}
		return controllers
	case map[string]any:
		person := map[string]any{"@type": "https://schema.org/Person"}
		for k, val := range t {
			person[k] = val
		}
		return person
	}
	return v
}

// UsedFor shapes usage entries into schema.org Things for the display
// context, joining multi-paragraph descriptions with blank lines.
func UsedFor(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		things := make([]any, 0, len(t))
		for _, entry := range t {
			things = append(things, UsedFor(entry))
		}
		return things
	case map[string]any:
		thing := map[string]any{
			"@type": "https://schema.org/Thing",
			"name":  literal(t["title"]),
		}
		if u := str(t["url"]); u != "" {
			thing["url"] = u
		}
		if desc := joinedText(t["description"]); desc != "" {
			thing["description"] = desc
		}
		return thing
	}
	return nil
}

// Homepage wraps homepage URLs in value objects typed as schema.org
// URLs so the catalog renders them as links.
func Homepage(v any) any {
	switch t := v.(type) {
	case []any:
		pages := make([]any, 0, len(t))
		for _, entry := range t {
			pages = append(pages, Homepage(entry))
		}
		return pages
	case string:
		return map[string]any{"@type": "https://schema.org/URL", "@value": t}
	}
	return nil
}

// cloneHosts are the hosts whose dataset homepages double as clone
// URLs.
var cloneHosts = map[string]bool{
	"gin.g-node.org":      true,
	"github.com":          true,
	"gitlab.com":          true,
	"jugit.fz-juelich.de": true,
}

// HomepageAsURL returns the homepages that point at a repository on a
// known hosting site, for use as the dataset's clone URLs.
func HomepageAsURL(v any) []string {
	var urls []string
	for _, entry := range asList(v) {
		homepage := str(entry)
		if homepage == "" {
			continue
		}
		u, err := url.Parse(homepage)
		if err != nil {
			continue
		}
		if cloneHosts[u.Host] && u.Path != "" {
			urls = append(urls, homepage)
		}
	}
	return urls
}

// OLSTerms resolves ontology term references through the Ontology
// Lookup Service and renders them with repr. References may be full
// IRIs or CURIEs such as NCBITaxon:10090; unresolvable references are
// dropped.
func OLSTerms(ctx context.Context, v any, terms TermLookup, repr func(*registry.Term) map[string]any) any {
	if v == nil || terms == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		resolved := make([]any, 0, len(t))
		for _, entry := range t {
			if r := OLSTerms(ctx, entry, terms, repr); r != nil {
				resolved = append(resolved, r)
			}
		}
		if len(resolved) == 0 {
			return nil
		}
		return resolved
	case string:
		iri := expandTermIRI(t)
		term := terms.Term(ctx, registry.OntologyFromIRI(iri), iri)
		if term == nil {
			return nil
		}
		return repr(term)
	}
	return nil
}

// expandTermIRI turns CURIE forms into full OBO IRIs. The OBO PURLs are
// canonically http, while the catalog context spells them https, so the
// scheme is normalized before the lookup.
func expandTermIRI(v string) string {
	const oboPURL = "http://purl.obolibrary.org/obo/"
	switch {
	case strings.HasPrefix(v, "https://purl.obolibrary.org/obo/"):
		return oboPURL + v[len("https://purl.obolibrary.org/obo/"):]
	case strings.HasPrefix(v, "http://"), strings.HasPrefix(v, "https://"):
		return v
	case strings.HasPrefix(v, "obo:"):
		return oboPURL + v[len("obo:"):]
	case strings.Contains(v, ":"):
		return oboPURL + strings.Replace(v, ":", "_", 1)
	}
	return v
}
