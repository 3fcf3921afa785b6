// Package prompt assembles the instructions, retrieved context and question sent to the generator.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/search"
)

// NotAvailable is the reply the model is told to give when the context does not cover a question.
const NotAvailable = "해당 정보는 현재 데이터에 없어요. 학교 행정실에 문의해주세요."

// System is the fixed instruction block: persona, behavioral rules and answer format.
const System = `당신은 서울여자대학교 신입생을 돕는 친절한 AI 도우미입니다.

역할:
- 학사 일정, 수강신청, 등록금, 장학금, 휴학/복학 등 학사 정보 안내
- 공지사항 및 지원 프로그램 안내
- 학사 용어 설명

규칙:
1. 제공된 정보만을 기반으로 답변하세요
2. 정보가 없으면 "` + NotAvailable + `"라고 안내하세요
3. 친근하고 이해하기 쉬운 말투를 사용하세요 (존댓말 사용)
4. 답변은 명확하고 구조화되게 작성하세요
5. 중요한 날짜나 기한은 강조해서 알려주세요
6. 추측하지 마세요

답변 형식:
- 핵심 정보를 먼저 제공
- 필요시 관련 정보 추가 안내
- 추가 질문 유도`

// ContextHeader opens every non-empty context block.
const ContextHeader = "다음은 참고할 정보입니다:\n\n"

// Prompt is a generation request split into its parts so providers can map the system block
// onto their own system-instruction field.
type Prompt struct {
	System   string
	Context  string
	Question string
}

// Build assembles the prompt for question with the retrieved snippets.
func Build(question string, snippets []search.Snippet) Prompt {
	return Prompt{
		System:   System,
		Context:  FormatContext(snippets),
		Question: question,
	}
}

// User returns the user turn: the context block followed by the question, or the bare question
// when there is no context.
func (p Prompt) User() string {
	if p.Context == "" {
		return p.Question
	}
	return p.Context + "\n\n질문: " + p.Question
}

// Text returns the whole prompt as a single string, for providers without a system field.
func (p Prompt) Text() string {
	if p.System == "" {
		return p.User()
	}
	return p.System + "\n\n" + p.User()
}

// FormatContext renders snippets as numbered documents, each prefixed with its source label.
func FormatContext(snippets []search.Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(ContextHeader)
	for i, s := range snippets {
		fmt.Fprintf(&b, "[문서 %d]\n", i+1)
		fmt.Fprintf(&b, "출처: %s\n", s.Source)
		writeRecord(&b, s.Record)
		b.WriteString("\n")
	}
	return b.String()
}

func writeRecord(b *strings.Builder, rec models.FactRecord) {
	switch r := rec.(type) {
	case *models.Schedule:
		fmt.Fprintf(b, "이름: %s\n", r.Name)
		fmt.Fprintf(b, "내용: %s: %s\n", r.Name, r.Period())
		writeOptional(b, "설명", r.Description)
	case *models.Notice:
		fmt.Fprintf(b, "제목: %s\n", r.Title)
		writeOptional(b, "부서", r.Department)
		writeOptional(b, "내용", r.Content)
	case *models.Program:
		fmt.Fprintf(b, "이름: %s\n", r.Name)
		writeOptional(b, "설명", r.Description)
		writeOptional(b, "신청 기간", r.ApplicationPeriod())
		writeOptional(b, "대상", r.Target)
		writeOptional(b, "신청 방법", r.ApplicationMethod)
		writeOptional(b, "혜택", r.Benefits)
	case *models.GlossaryTerm:
		fmt.Fprintf(b, "용어: %s\n", r.Term)
		fmt.Fprintf(b, "정의: %s\n", r.Definition)
	}
}

func writeOptional(b *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", key, value)
	}
}
