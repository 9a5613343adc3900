package registry

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/psychoinformatics-de/tabbycat/internal/fetch"
)

// CordisClient looks up EU projects in the CORDIS registry.
type CordisClient struct {
	BaseURL string
	fetch   *fetch.Client
}

// NewCordisClient returns a client for the public CORDIS site.
func NewCordisClient(f *fetch.Client) *CordisClient {
	return &CordisClient{BaseURL: "https://cordis.europa.eu", fetch: f}
}

// Project fetches an EU project record by its CORDIS id and shapes it
// into grant information. Unknown projects come back nil.
func (c *CordisClient) Project(ctx context.Context, id string) (*Grant, error) {
	endpoint := fmt.Sprintf("%s/project/id/%s/en?format=xml", c.BaseURL, id)
	resp, err := c.fetch.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, nil
	}

	var project struct {
		XMLName xml.Name `xml:"project"`
		ID      string   `xml:"id"`
		Acronym string   `xml:"acronym"`
		Title   string   `xml:"title"`
	}
	if err := xml.Unmarshal(resp.Body, &project); err != nil {
		return nil, fmt.Errorf("parsing CORDIS project %s: %w", id, err)
	}
	if project.Title == "" {
		return nil, nil
	}

	name := project.Title
	if project.Acronym != "" {
		name = fmt.Sprintf("%s: %s", project.Acronym, project.Title)
	}
	return &Grant{
		Funder:     "European Commission",
		Name:       name,
		Identifier: fmt.Sprintf("%s/project/id/%s", c.BaseURL, id),
	}, nil
}
