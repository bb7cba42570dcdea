package dataset

// CandidateLink is an article link found on a portal listing page. It only
// lives for the duration of one discovery iteration.
type CandidateLink struct {
	SourcePageURL string
	ArticleURL    string
}

// SnapshotRef is the archive's answer for a single article URL.
type SnapshotRef struct {
	TargetURL   string
	Available   bool
	SnapshotURL string
}

// ArticleIdentity names the stored record of an article.
type ArticleIdentity struct {
	Index    string
	Category string
}

// Filename returns the record filename for the identity.
func (a ArticleIdentity) Filename() string {
	return a.Index + RecordExt
}

// RecordExt is appended to every record identity to form its filename.
const RecordExt = ".json"

// ExtractedFields is what the page extractor pulls out of an article page.
type ExtractedFields struct {
	Title        string
	Introduction string
	Document     string
}

// ExtractedRecord is persisted once per successfully extracted article. Index
// is carried by the filename and is not part of the JSON body.
type ExtractedRecord struct {
	Index        string `json:"-"`
	Title        string `json:"title"`
	Introduction string `json:"introduction"`
	Document     string `json:"document"`
	Category     string `json:"category"`
	URL          string `json:"url"`
}

// NormalizedRecord is the normalized counterpart of an ExtractedRecord.
type NormalizedRecord struct {
	Index         string `json:"-"`
	Title         string `json:"title"`
	Introduction  string `json:"introduction"`
	Document      string `json:"document"`
	Category      string `json:"category"`
	URL           string `json:"url"`
	DocumentLemma string `json:"document_lemma"`
}

// NewExtractedRecord assembles a record from an identity and extracted fields.
func NewExtractedRecord(id ArticleIdentity, url string, fields ExtractedFields) ExtractedRecord {
	return ExtractedRecord{
		Index:        id.Index,
		Title:        fields.Title,
		Introduction: fields.Introduction,
		Document:     fields.Document,
		Category:     id.Category,
		URL:          url,
	}
}
