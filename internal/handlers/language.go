package handlers

import (
	"strings"
)

// languageKeywords maps a canonical solution language to the phrases that
// select it when they appear in a question.
var languageKeywords = []struct {
	language string
	keywords []string
}{
	{"python", []string{"python", "py"}},
	{"cpp", []string{"c++", "cpp", "c plus"}},
	{"java", []string{"java"}},
	{"javascript", []string{"javascript", "js", "node"}},
	{"go", []string{"go", "golang"}},
	{"rust", []string{"rust"}},
	{"kotlin", []string{"kotlin"}},
	{"swift", []string{"swift"}},
	{"typescript", []string{"typescript", "ts"}},
}

// detectPreferredLanguage resolves the language a solution should be written
// in: an explicit mention in the question wins, then the language of the
// submitted code, then cpp.
func detectPreferredLanguage(question, currentLanguage string) string {
	questionLower := strings.ToLower(question)

	for _, entry := range languageKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(questionLower, keyword) {
				return entry.language
			}
		}
	}

	if currentLanguage != "" && currentLanguage != "unknown" {
		return currentLanguage
	}

	return "cpp"
}
