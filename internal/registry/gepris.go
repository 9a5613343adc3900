package registry

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/psychoinformatics-de/tabbycat/internal/fetch"
)

// GeprisClient looks up DFG projects in GEPRIS. GEPRIS has no metadata
// API, so the project title is scraped from the project page heading.
type GeprisClient struct {
	BaseURL string
	fetch   *fetch.Client
}

// NewGeprisClient returns a client for the public GEPRIS site.
func NewGeprisClient(f *fetch.Client) *GeprisClient {
	return &GeprisClient{BaseURL: "https://gepris.dfg.de", fetch: f}
}

// Project fetches a DFG project page and shapes it into grant
// information. Unknown projects come back nil.
func (c *GeprisClient) Project(ctx context.Context, id string) (*Grant, error) {
	endpoint := fmt.Sprintf("%s/gepris/projekt/%s", c.BaseURL, id)
	resp, err := c.fetch.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, nil
	}

	title := firstHeading(resp.Body)
	if title == "" {
		return nil, nil
	}
	return &Grant{
		Funder:     "Deutsche Forschungsgemeinschaft (DFG)",
		Name:       title,
		Identifier: endpoint,
	}, nil
}

// firstHeading returns the text of the first non-empty h1 element,
// with whitespace collapsed.
func firstHeading(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var find func(n *html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "h1" {
			if text := nodeText(n); text != "" {
				return text
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if text := find(child); text != "" {
				return text
			}
		}
		return ""
	}
	return find(doc)
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
