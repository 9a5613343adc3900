package registry

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/fetch"
)

// CrossrefClient talks to Crossref's REST API (registration agency
// lookups) and its XML query API (unixref records).
type CrossrefClient struct {
	APIBase   string
	QueryBase string
	fetch     *fetch.Client
}

// NewCrossrefClient returns a client for the public Crossref APIs.
func NewCrossrefClient(f *fetch.Client) *CrossrefClient {
	return &CrossrefClient{
		APIBase:   "https://api.crossref.org",
		QueryBase: "https://doi.crossref.org",
		fetch:     f,
	}
}

// Agency reports which registration agency a DOI belongs to, e.g.
// "Crossref" or "DataCite". It returns "" when the DOI is unknown.
func (c *CrossrefClient) Agency(ctx context.Context, doi string) (string, error) {
	endpoint := fmt.Sprintf("%s/works/%s/agency", c.APIBase, DOIID(doi))
	if mailto := c.fetch.Mailto(); mailto != "" {
		endpoint += "?mailto=" + url.QueryEscape(mailto)
	}
	resp, err := c.fetch.Get(ctx, endpoint, nil)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", nil
	}

	var envelope struct {
		Message struct {
			Agency struct {
				ID    string `json:"id"`
				Label string `json:"label"`
			} `json:"agency"`
		} `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return "", fmt.Errorf("parsing agency response for %s: %w", doi, err)
	}
	return envelope.Message.Agency.Label, nil
}

// unixref is the subset of Crossref's unixref format the pipeline can
// translate: journal articles. Other record types are reported as a
// missing record.
type unixref struct {
	XMLName xml.Name        `xml:"doi_records"`
	Records []unixrefRecord `xml:"doi_record"`
}

type unixrefRecord struct {
	Journal *struct {
		Metadata struct {
			FullTitle string `xml:"full_title"`
		} `xml:"journal_metadata"`
		Article *struct {
			Title        string `xml:"titles>title"`
			Contributors struct {
				People []struct {
					Role      string `xml:"contributor_role,attr"`
					GivenName string `xml:"given_name"`
					Surname   string `xml:"surname"`
					Suffix    string `xml:"suffix"`
					ORCID     string `xml:"ORCID"`
				} `xml:"person_name"`
			} `xml:"contributors"`
			Dates []struct {
				MediaType string `xml:"media_type,attr"`
				Year      string `xml:"year"`
			} `xml:"publication_date"`
			DOI string `xml:"doi_data>doi"`
		} `xml:"journal_article"`
	} `xml:"crossref>journal"`
}

// ResolveXML fetches a unixref record and shapes it into a
// catalog-schema publication. Crossref's XML and doi.org metadata can
// misalign in rare cases, so this is used as a fallback.
func (c *CrossrefClient) ResolveXML(ctx context.Context, doi string) (*catalog.Publication, error) {
	endpoint := fmt.Sprintf("%s/servlet/query?pid=%s&format=unixref&id=%s",
		c.QueryBase, url.QueryEscape(c.fetch.Mailto()), url.QueryEscape(DOIID(doi)))
	resp, err := c.fetch.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, nil
	}

	var records unixref
	if err := xml.Unmarshal(resp.Body, &records); err != nil {
		return nil, fmt.Errorf("parsing unixref for %s: %w", doi, err)
	}
	if len(records.Records) == 0 {
		return nil, nil
	}
	journal := records.Records[0].Journal
	if journal == nil || journal.Article == nil {
		slog.Warn("unixref translation only covers journal articles", "doi", doi)
		return nil, nil
	}
	article := journal.Article

	pub := &catalog.Publication{
		Type:              "journal-article",
		Title:             article.Title,
		DOI:               article.DOI,
		PublicationOutlet: journal.Metadata.FullTitle,
		Authors:           []catalog.Author{},
	}
	if pub.DOI == "" {
		pub.DOI = DOIID(doi)
	}

	// earliest of the print and online publication years
	year := 0
	for _, d := range article.Dates {
		y, err := strconv.Atoi(d.Year)
		if err != nil {
			continue
		}
		if year == 0 || y < year {
			year = y
		}
	}
	if year > 0 {
		pub.DatePublished = strconv.Itoa(year)
	}

	for _, p := range article.Contributors.People {
		if p.Role != "" && p.Role != "author" {
			continue
		}
		author := catalog.Author{
			GivenName:       p.GivenName,
			FamilyName:      p.Surname,
			HonorificSuffix: p.Suffix,
		}
		if p.ORCID != "" {
			author.Identifiers = []catalog.Identifier{{Name: "ORCID", Identifier: p.ORCID}}
		}
		pub.Authors = append(pub.Authors, author)
	}
	return pub, nil
}
