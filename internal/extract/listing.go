package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// ListingParser collects article links from a portal listing page.
type ListingParser struct {
	item string
}

// NewListingParser returns a parser matching listing items with the Listing
// selector of sel.
func NewListingParser(sel Selectors) *ListingParser {
	return &ListingParser{item: sel.withDefaults().Listing}
}

// Links returns the candidate article links of a listing page in document
// order. Each listing item contributes the href of its first child element;
// relative hrefs are resolved against pageURL. Items without a usable href
// are skipped.
func (p *ListingParser) Links(pageURL string, html []byte) ([]dataset.CandidateLink, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing html: %v", dataset.ErrStructure, err)
	}

	var links []dataset.CandidateLink
	doc.Find(p.item).Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Children().First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, dataset.CandidateLink{
			SourcePageURL: pageURL,
			ArticleURL:    base.ResolveReference(ref).String(),
		})
	})
	return links, nil
}
