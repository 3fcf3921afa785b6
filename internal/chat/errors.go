package chat

import (
	"errors"
	"fmt"
)

// User-facing messages. Internal error details are never sent to clients.
const (
	MsgEmptyQuestion   = "질문을 입력해주세요."
	MsgQuestionTooLong = "질문은 1000자 이내로 입력해주세요."
	FallbackAnswer     = "죄송해요. 일시적인 오류가 발생했어요. 잠시 후 다시 시도해주세요."
	MsgStreamFailed    = "스트리밍 오류가 발생했습니다."
)

// InvalidInputError reports a question the caller must correct. Message is safe to show.
type InvalidInputError struct {
	Message string
	Reason  string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ErrStreamInterrupted marks a stream that ended with a generator failure.
var ErrStreamInterrupted = errors.New("stream interrupted")

// IsInvalidInput reports whether err is an *InvalidInputError.
func IsInvalidInput(err error) bool {
	var invalid *InvalidInputError
	return errors.As(err, &invalid)
}
