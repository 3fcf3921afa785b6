package chat

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/campusbot/internal/models"
)

// MaxQuestionRunes caps question length.
const MaxQuestionRunes = 1000

// ValidateQuestion extracts the question from req. The first non-empty of message and question is
// used; it must be a JSON string that is not blank and at most MaxQuestionRunes long.
func ValidateQuestion(req models.ChatRequest) (string, error) {
	raw := req.Candidate()
	if raw == nil {
		return "", &InvalidInputError{Message: MsgEmptyQuestion, Reason: "question is missing"}
	}
	var question string
	if err := json.Unmarshal(raw, &question); err != nil {
		return "", &InvalidInputError{Message: MsgEmptyQuestion, Reason: "question is not a string"}
	}
	return normalizeQuestion(question)
}

func normalizeQuestion(question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", &InvalidInputError{Message: MsgEmptyQuestion, Reason: "question is blank"}
	}
	if utf8.RuneCountInString(question) > MaxQuestionRunes {
		return "", &InvalidInputError{Message: MsgQuestionTooLong, Reason: "question is too long"}
	}
	return question, nil
}
