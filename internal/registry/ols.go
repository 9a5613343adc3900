package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/psychoinformatics-de/tabbycat/internal/fetch"
)

// Term is an ontology term as reported by the Ontology Lookup Service.
type Term struct {
	IRI         string
	Label       string
	ShortForm   string
	OboID       string
	Description []string
}

// OLSClient looks up ontology terms in the EBI Ontology Lookup Service.
type OLSClient struct {
	BaseURL string
	fetch   *fetch.Client
}

// NewOLSClient returns a client for the public OLS4 API.
func NewOLSClient(f *fetch.Client) *OLSClient {
	return &OLSClient{BaseURL: "https://www.ebi.ac.uk/ols4/api", fetch: f}
}

// OntologyFromIRI guesses the OLS ontology id from an OBO-style term
// IRI, e.g. ".../obo/NCBITaxon_10090" -> "ncbitaxon".
func OntologyFromIRI(iri string) string {
	name, _, ok := strings.Cut(path.Base(iri), "_")
	if !ok {
		return ""
	}
	return strings.ToLower(name)
}

// Term fetches a single ontology term. The term IRI is double
// URL-encoded, as the OLS API requires. Unknown terms come back nil.
func (c *OLSClient) Term(ctx context.Context, ontology, iri string) (*Term, error) {
	if ontology == "" || iri == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/ontologies/%s/terms/%s",
		c.BaseURL, url.PathEscape(ontology), url.QueryEscape(url.QueryEscape(iri)))
	resp, err := c.fetch.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, nil
	}

	var body struct {
		IRI         string   `json:"iri"`
		Label       string   `json:"label"`
		ShortForm   string   `json:"short_form"`
		OboID       string   `json:"obo_id"`
		Description []string `json:"description"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("parsing OLS term %s: %w", iri, err)
	}
	return &Term{
		IRI:         body.IRI,
		Label:       body.Label,
		ShortForm:   body.ShortForm,
		OboID:       body.OboID,
		Description: body.Description,
	}, nil
}

// ReprNCBITaxon renders a taxonomy term for catalog display.
func ReprNCBITaxon(t *Term) map[string]any {
	if t == nil {
		return nil
	}
	return map[string]any{
		"name":       t.Label,
		"identifier": t.OboID,
		"url":        t.IRI,
	}
}

// ReprUberon renders an anatomy term for catalog display.
func ReprUberon(t *Term) map[string]any {
	if t == nil {
		return nil
	}
	return map[string]any{
		"name": t.Label,
		"url":  t.IRI,
	}
}
