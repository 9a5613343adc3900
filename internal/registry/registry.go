// Package registry queries external metadata registries: doi.org,
// Crossref, the EBI Ontology Lookup Service, CORDIS, and GEPRIS.
//
// All lookups share one cached session. A registry answering non-2xx is
// not treated as an error; lookups return nil and the pipeline carries
// on with the metadata it already has.
package registry

import (
	"context"
	"log/slog"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/fetch"
)

// Grant is funding information resolved from a registry.
type Grant struct {
	Funder     string
	Name       string
	Identifier string
}

// Registry bundles the individual clients behind one cached session.
type Registry struct {
	DOI      *DOIClient
	Crossref *CrossrefClient
	OLS      *OLSClient
	Cordis   *CordisClient
	Gepris   *GeprisClient
}

// New builds a registry on top of a fetch session.
func New(f *fetch.Client) *Registry {
	return &Registry{
		DOI:      NewDOIClient(f),
		Crossref: NewCrossrefClient(f),
		OLS:      NewOLSClient(f),
		Cordis:   NewCordisClient(f),
		Gepris:   NewGeprisClient(f),
	}
}

// Publication resolves publication metadata for a DOI via doi.org.
// Failures are logged and reported as a missing record.
func (r *Registry) Publication(ctx context.Context, doi string) *catalog.Publication {
	pub, err := r.DOI.Resolve(ctx, doi)
	if err != nil {
		slog.Warn("doi.org lookup failed", "doi", doi, "error", err)
		return nil
	}
	return pub
}

// Agency names the registration agency behind a DOI, or "" when it
// cannot be determined.
func (r *Registry) Agency(ctx context.Context, doi string) string {
	agency, err := r.Crossref.Agency(ctx, doi)
	if err != nil {
		slog.Warn("agency lookup failed", "doi", doi, "error", err)
		return ""
	}
	return agency
}

// PublicationXML resolves publication metadata through Crossref's XML
// query API, the fallback for works whose doi.org metadata misaligns.
func (r *Registry) PublicationXML(ctx context.Context, doi string) *catalog.Publication {
	pub, err := r.Crossref.ResolveXML(ctx, doi)
	if err != nil {
		slog.Warn("crossref xml lookup failed", "doi", doi, "error", err)
		return nil
	}
	return pub
}

// Term resolves an ontology term, or nil when the lookup fails.
func (r *Registry) Term(ctx context.Context, ontology, iri string) *Term {
	term, err := r.OLS.Term(ctx, ontology, iri)
	if err != nil {
		slog.Warn("ols lookup failed", "iri", iri, "error", err)
		return nil
	}
	return term
}
