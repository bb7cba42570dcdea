package textnorm

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// DefaultLanguage is the language hint used when none is configured.
const DefaultLanguage = "sk"

const punctuation = "!\"´#$%&'()*+,./:;<=>?@[\\]^`{|}~"

// Normalizer normalizes and lemmatizes text for one worker.
type Normalizer struct {
	res      *Resources
	detector LanguageDetector
	lang     string
	lower    cases.Caser
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithDetector replaces the default language detector.
func WithDetector(d LanguageDetector) Option {
	return func(n *Normalizer) { n.detector = d }
}

// WithLanguage sets the language hint and the lowercasing rules.
func WithLanguage(code string) Option {
	return func(n *Normalizer) {
		if code != "" {
			n.lang = code
		}
	}
}

// New returns a Normalizer over res. A nil res behaves as empty reference
// data.
func New(res *Resources, opts ...Option) *Normalizer {
	if res == nil {
		res = NewResources(nil, nil)
	}
	n := &Normalizer{
		res:      res,
		detector: WhatlangDetector{},
		lang:     DefaultLanguage,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.lower = cases.Lower(language.Make(n.lang))
	return n
}

// Language runs the detector on text.
func (n *Normalizer) Language(text string) (string, error) {
	return n.detector.Detect(text, n.lang)
}

// Normalize returns the surviving tokens of text joined by single spaces, in
// sentence order then token order.
func (n *Normalizer) Normalize(text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: segmentation panic: %v", dataset.ErrLanguage, r)
		}
	}()

	if _, err := n.Language(text); err != nil {
		return "", err
	}

	var tokens []string
	sents := sentences.FromString(text)
	for sents.Next() {
		segs := words.FromString(sents.Value())
		for segs.Next() {
			if tok, ok := n.token(segs.Value()); ok {
				tokens = append(tokens, tok)
			}
		}
	}
	return strings.Join(tokens, " "), nil
}

func (n *Normalizer) token(seg string) (string, bool) {
	if strings.TrimSpace(seg) == "" {
		return "", false
	}
	tok := stripRunes(seg, isPunctuation)
	if tok == "" {
		return "", false
	}
	tok = stripRunes(n.lower.String(tok), unicode.IsDigit)
	if _, stop := n.res.Stopwords[tok]; stop {
		return "", false
	}
	if utf8.RuneCountInString(tok) <= 1 {
		return "", false
	}
	return tok, true
}

// Lemmatize maps every space separated word of normalized through the lemma
// dictionary. Unknown words map to themselves.
func (n *Normalizer) Lemmatize(normalized string) string {
	parts := strings.Split(normalized, " ")
	for i, word := range parts {
		if lemma, ok := n.res.Lemmas[word]; ok {
			parts[i] = lemma
		}
	}
	return strings.Join(parts, " ")
}

func isPunctuation(r rune) bool {
	return strings.ContainsRune(punctuation, r)
}

func stripRunes(s string, drop func(rune) bool) string {
	return strings.Map(func(r rune) rune {
		if drop(r) {
			return -1
		}
		return r
	}, s)
}
