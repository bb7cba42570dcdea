package textnorm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Resources is the immutable reference data shared by every Normalizer.
type Resources struct {
	Stopwords map[string]struct{}
	Lemmas    map[string]string
}

// NewResources builds Resources from in-memory lists.
func NewResources(stopwords []string, lemmas map[string]string) *Resources {
	r := &Resources{
		Stopwords: make(map[string]struct{}, len(stopwords)),
		Lemmas:    make(map[string]string, len(lemmas)),
	}
	for _, w := range stopwords {
		if w = strings.TrimSpace(w); w != "" {
			r.Stopwords[w] = struct{}{}
		}
	}
	for form, lemma := range lemmas {
		r.Lemmas[form] = lemma
	}
	return r
}

// LoadResources reads the stopword list and, when lemmaPath is not empty,
// the lemma dictionary.
func LoadResources(stopwordPath, lemmaPath string) (*Resources, error) {
	stopwords, err := LoadStopwords(stopwordPath)
	if err != nil {
		return nil, err
	}
	lemmas := map[string]string{}
	if lemmaPath != "" {
		if lemmas, err = LoadLemmas(lemmaPath); err != nil {
			return nil, err
		}
	}
	return &Resources{Stopwords: stopwords, Lemmas: lemmas}, nil
}

// LoadStopwords reads one stopword per line. Blank lines are ignored.
func LoadStopwords(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer f.Close()

	words, err := ParseStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("read stopwords %s: %w", path, err)
	}
	return words, nil
}

// ParseStopwords reads one stopword per line from r.
func ParseStopwords(r io.Reader) (map[string]struct{}, error) {
	words := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words[w] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// LoadLemmas reads a lemma dictionary file.
func LoadLemmas(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lemma dictionary: %w", err)
	}
	defer f.Close()

	lemmas, err := ParseLemmas(f)
	if err != nil {
		return nil, fmt.Errorf("read lemma dictionary %s: %w", path, err)
	}
	return lemmas, nil
}

// ParseLemmas reads "form<TAB>lemma" (or whitespace separated) pairs, one per
// line. Lines starting with '#' and blank lines are skipped. A form listed
// twice keeps its first lemma.
func ParseLemmas(r io.Reader) (map[string]string, error) {
	lemmas := make(map[string]string)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want form and lemma, got %d fields", line, len(fields))
		}
		if _, seen := lemmas[fields[0]]; !seen {
			lemmas[fields[0]] = fields[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lemmas, nil
}
