package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// Selectors names the page elements the extractor relies on.
type Selectors struct {
	Premium      string `mapstructure:"premium"`
	Title        string `mapstructure:"title"`
	Introduction string `mapstructure:"introduction"`
	Article      string `mapstructure:"article"`
	Listing      string `mapstructure:"listing"`
}

// DefaultSelectors matches the markup of the SME portal.
func DefaultSelectors() Selectors {
	return Selectors{
		Premium:      "div.editorial-promo",
		Title:        "div.article-heading",
		Introduction: "p.perex",
		Article:      "article",
		Listing:      "div.media.media-two-cols.cf",
	}
}

func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	if s.Premium == "" {
		s.Premium = d.Premium
	}
	if s.Title == "" {
		s.Title = d.Title
	}
	if s.Introduction == "" {
		s.Introduction = d.Introduction
	}
	if s.Article == "" {
		s.Article = d.Article
	}
	if s.Listing == "" {
		s.Listing = d.Listing
	}
	return s
}

// PageExtractor turns an article page into dataset.ExtractedFields. It holds
// no mutable state and is safe for concurrent use.
type PageExtractor struct {
	sel Selectors
}

// NewPageExtractor returns an extractor; empty selectors fall back to
// DefaultSelectors.
func NewPageExtractor(sel Selectors) *PageExtractor {
	return &PageExtractor{sel: sel.withDefaults()}
}

// Extract parses html. A paywalled page fails with dataset.ErrContentPolicy
// before anything else is read; a page missing the heading, the lede, or the
// article container fails with dataset.ErrStructure.
func (e *PageExtractor) Extract(html []byte) (dataset.ExtractedFields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return dataset.ExtractedFields{}, fmt.Errorf("%w: parse html: %v", dataset.ErrStructure, err)
	}

	if doc.Find(e.sel.Premium).Length() > 0 {
		return dataset.ExtractedFields{}, dataset.ErrContentPolicy
	}

	title := doc.Find(e.sel.Title).First()
	if title.Length() == 0 {
		return dataset.ExtractedFields{}, fmt.Errorf("%w: missing %q", dataset.ErrStructure, e.sel.Title)
	}
	intro := doc.Find(e.sel.Introduction).First()
	if intro.Length() == 0 {
		return dataset.ExtractedFields{}, fmt.Errorf("%w: missing %q", dataset.ErrStructure, e.sel.Introduction)
	}
	article := doc.Find(e.sel.Article).First()
	if article.Length() == 0 {
		return dataset.ExtractedFields{}, fmt.Errorf("%w: missing %q", dataset.ErrStructure, e.sel.Article)
	}

	return dataset.ExtractedFields{
		Title:        strings.TrimSpace(title.Text()),
		Introduction: strings.TrimSpace(intro.Text()),
		Document:     plainParagraphs(article),
	}, nil
}

// plainParagraphs joins the text of every attribute-less <p> under root.
func plainParagraphs(root *goquery.Selection) string {
	var parts []string
	root.Find("p").Each(func(_ int, p *goquery.Selection) {
		if len(p.Nodes[0].Attr) != 0 {
			return
		}
		parts = append(parts, p.Text())
	})
	return strings.Join(parts, " ")
}
