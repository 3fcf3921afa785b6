package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/campusbot/internal/models"
)

var (
	speculativePhrases = []string{"아마도", "추측", "확실하지 않지만", "예상", "짐작", "것 같", "로 보입니다"}
	prohibitedPhrases  = []string{"제가 판단하기에", "개인적으로"}
)

const (
	minAnswerRunes = 10
	maxAnswerRunes = 2000
)

// CheckAnswer returns warnings about an answer's wording and length. It never alters the answer;
// the controller only logs the result.
func CheckAnswer(answer string, sources []models.Source) []string {
	var warnings []string
	for _, phrase := range speculativePhrases {
		if strings.Contains(answer, phrase) {
			warnings = append(warnings, "speculative phrase: "+phrase)
		}
	}
	for _, phrase := range prohibitedPhrases {
		if strings.Contains(answer, phrase) {
			warnings = append(warnings, "prohibited phrase: "+phrase)
		}
	}
	switch n := utf8.RuneCountInString(strings.TrimSpace(answer)); {
	case n < minAnswerRunes:
		warnings = append(warnings, "answer too short")
	case n > maxAnswerRunes:
		warnings = append(warnings, "answer too long")
	}
	if len(sources) == 0 {
		warnings = append(warnings, "answer has no sources")
	}
	return warnings
}
