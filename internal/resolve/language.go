package resolve

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minLanguageSample is the shortest text worth running detection on.
const minLanguageSample = 20

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

var detectable = []lingua.Language{
	lingua.English,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
}

// DetectLanguage names the language of text, e.g. "Chinese". Short or
// ambiguous text reports false.
func DetectLanguage(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minLanguageSample {
		return "", false
	}
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectable...).
			WithMinimumRelativeDistance(0.25).
			Build()
	})
	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return lang.String(), true
}
