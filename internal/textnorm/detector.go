package textnorm

import (
	"fmt"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// LanguageDetector inspects a text before it is segmented. It returns the
// ISO 639-1 code it settled on ("" when it could not tell) and fails with
// dataset.ErrLanguage when the text cannot be processed at all.
type LanguageDetector interface {
	Detect(text, hint string) (string, error)
}

// WhatlangDetector is the default LanguageDetector.
type WhatlangDetector struct{}

// Detect implements LanguageDetector. Text that is not valid UTF-8 is
// rejected; an undetectable language is not an error, the hint decides.
func (WhatlangDetector) Detect(text, hint string) (string, error) {
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: input is not valid utf-8", dataset.ErrLanguage)
	}
	info := whatlanggo.Detect(text)
	if info.Script == nil {
		return hint, nil
	}
	if !info.IsReliable() {
		return hint, nil
	}
	return info.Lang.Iso6391(), nil
}
