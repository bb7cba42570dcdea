// Package stage implements the per-item logic of the three pipeline stages.
//
// Discovery walks listing pages and records the archived snapshot of every
// article it finds. Extraction downloads each snapshot, routes paywalled and
// unreachable pages to their URL logs, and stores the article fields.
// Normalization rewrites every stored record into its normalized form.
//
// Every handler is total: it never returns an error, it returns the
// dataset.Outcome the item ended in and logs the reason for any drop.
package stage

import "github.com/JakeFAU/news-archive-dataset/internal/dataset"

// LinkParser extracts candidate article links from a listing page.
type LinkParser interface {
	Links(pageURL string, html []byte) ([]dataset.CandidateLink, error)
}

// FieldExtractor extracts article fields from an article page.
type FieldExtractor interface {
	Extract(html []byte) (dataset.ExtractedFields, error)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, dataset.Outcome) {}
