package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/fetch"
)

// acceptCSL asks doi.org's content negotiation for citeproc JSON.
const acceptCSL = "application/vnd.citationstyles.csl+json"

// DOIClient resolves DOIs through doi.org content negotiation, which
// works for Crossref and DataCite DOIs alike.
type DOIClient struct {
	BaseURL string
	fetch   *fetch.Client
}

// NewDOIClient returns a client for the public doi.org resolver.
func NewDOIClient(f *fetch.Client) *DOIClient {
	return &DOIClient{BaseURL: "https://doi.org", fetch: f}
}

// DOIID isolates the identifier part of a DOI given in URL, "doi:",
// or bare form.
func DOIID(doi string) string {
	lower := strings.ToLower(doi)
	switch {
	case strings.HasPrefix(lower, "http"):
		u, err := url.Parse(doi)
		if err != nil {
			return doi
		}
		return strings.TrimPrefix(u.Path, "/")
	case strings.HasPrefix(lower, "doi:"):
		return doi[4:]
	default:
		return doi
	}
}

// Resolve fetches CSL metadata for a DOI and shapes it into a
// catalog-schema publication. It returns nil when the DOI does not
// resolve to a usable record.
func (c *DOIClient) Resolve(ctx context.Context, doi string) (*catalog.Publication, error) {
	endpoint := fmt.Sprintf("%s/%s", c.BaseURL, DOIID(doi))
	resp, err := c.fetch.Get(ctx, endpoint, http.Header{"Accept": []string{acceptCSL}})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, nil
	}

	var work struct {
		Type           string `json:"type"`
		Title          string `json:"title"`
		DOI            string `json:"DOI"`
		ContainerTitle string `json:"container-title"`
		Issued         struct {
			DateParts [][]int `json:"date-parts"`
		} `json:"issued"`
		Author []struct {
			Given   string `json:"given"`
			Family  string `json:"family"`
			Name    string `json:"name"`
			Literal string `json:"literal"`
			ORCID   string `json:"ORCID"`
		} `json:"author"`
	}
	if err := json.Unmarshal(resp.Body, &work); err != nil {
		return nil, fmt.Errorf("parsing CSL metadata for %s: %w", doi, err)
	}

	pub := &catalog.Publication{
		Type:              work.Type,
		Title:             work.Title,
		DOI:               work.DOI,
		PublicationOutlet: work.ContainerTitle,
		Authors:           []catalog.Author{},
	}
	if pub.DOI == "" {
		pub.DOI = DOIID(doi)
	}
	if len(work.Issued.DateParts) > 0 && len(work.Issued.DateParts[0]) > 0 {
		pub.DatePublished = strconv.Itoa(work.Issued.DateParts[0][0])
	}
	for _, a := range work.Author {
		author := catalog.Author{
			GivenName:  a.Given,
			FamilyName: a.Family,
			Name:       a.Name,
		}
		if author.Name == "" {
			author.Name = a.Literal
		}
		if a.ORCID != "" {
			author.Identifiers = []catalog.Identifier{{Name: "ORCID", Identifier: a.ORCID}}
		}
		pub.Authors = append(pub.Authors, author)
	}
	return pub, nil
}
