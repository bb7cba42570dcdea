// Package archive talks to the Wayback Machine availability API and fetches
// archived pages.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// DefaultLookupEndpoint is the public availability API.
const DefaultLookupEndpoint = "https://archive.org/wayback/available"

// Client implements dataset.ContentClient on top of two fetchers, one tuned
// for the short availability lookups and one for page downloads.
type Client struct {
	lookup   dataset.Fetcher
	page     dataset.Fetcher
	endpoint string
}

// NewClient builds a Client. An empty endpoint falls back to
// DefaultLookupEndpoint.
func NewClient(lookup, page dataset.Fetcher, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultLookupEndpoint
	}
	return &Client{lookup: lookup, page: page, endpoint: endpoint}
}

type availability struct {
	ArchivedSnapshots struct {
		Closest *struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// LookupSnapshot asks the archive for the closest snapshot of targetURL. An
// answer the archive cannot vouch for (no snapshot, missing fields, or a body
// that does not decode) is reported as unavailable rather than as an error.
func (c *Client) LookupSnapshot(ctx context.Context, targetURL string) (dataset.SnapshotRef, error) {
	ref := dataset.SnapshotRef{TargetURL: targetURL}

	lookupURL, err := c.lookupURL(targetURL)
	if err != nil {
		return ref, err
	}
	resp, err := c.lookup.Fetch(ctx, lookupURL)
	if err != nil {
		return ref, fmt.Errorf("lookup snapshot: %w", err)
	}
	if !dataset.IsSuccessStatus(resp.StatusCode) {
		return ref, &dataset.HTTPStatusError{URL: lookupURL, StatusCode: resp.StatusCode}
	}

	var body availability
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return ref, nil
	}
	closest := body.ArchivedSnapshots.Closest
	if closest == nil || !closest.Available || strings.TrimSpace(closest.URL) == "" {
		return ref, nil
	}
	ref.Available = true
	ref.SnapshotURL = strings.TrimSpace(closest.URL)
	return ref, nil
}

// FetchPage downloads rawURL and returns the body of a 2xx response.
func (c *Client) FetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.page.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	if !dataset.IsSuccessStatus(resp.StatusCode) {
		return nil, &dataset.HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func (c *Client) lookupURL(targetURL string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse lookup endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("url", targetURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
