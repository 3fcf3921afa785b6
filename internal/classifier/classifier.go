// Package classifier buckets a question into a topic category by keyword overlap.
package classifier

import (
	"strings"

	"github.com/hyperjump/campusbot/internal/models"
)

type rule struct {
	category models.Category
	keywords []string
}

// rules is scored in order; on equal scores the earlier category wins.
var rules = []rule{
	{models.CategorySchedule, []string{
		"수강신청", "등록금", "납부", "개강", "종강", "중간고사", "기말고사",
		"시험", "휴학", "복학", "계절학기", "언제", "일정", "기간",
	}},
	{models.CategoryNotice, []string{
		"공지", "안내", "알림", "소식", "발표",
	}},
	{models.CategoryProgram, []string{
		"장학금", "장학", "멘토링", "프로그램", "지원", "신청", "비교과",
		"마일리지", "동아리", "창업", "취업",
	}},
	{models.CategoryAcademicInfo, []string{
		"학점", "전공", "복수전공", "부전공", "교양", "이수", "졸업",
		"평점", "재수강", "뭐야", "뭔가요", "무엇", "어떻게",
	}},
}

// Score is the number of a category's keywords found in a question.
type Score struct {
	Category models.Category `json:"category"`
	Score    int             `json:"score"`
	Matched  []string        `json:"matched,omitempty"`
}

// Scores returns every scored category's keyword hits in enumeration order.
// Matching is plain substring containment on the lowercased question: no stemming and
// no word boundaries, so a keyword nested in another (신청 in 수강신청) counts for both.
func Scores(question string) []Score {
	q := strings.ToLower(question)
	out := make([]Score, 0, len(rules))
	for _, r := range rules {
		s := Score{Category: r.category}
		for _, kw := range r.keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				s.Score++
				s.Matched = append(s.Matched, kw)
			}
		}
		out = append(out, s)
	}
	return out
}

// Classify returns the category with the strictly highest score, or CategoryOther when
// nothing matches.
func Classify(question string) models.Category {
	best := models.CategoryOther
	max := 0
	for _, s := range Scores(question) {
		if s.Score > max {
			max = s.Score
			best = s.Category
		}
	}
	return best
}

// Keywords returns a copy of the keyword list for category.
func Keywords(category models.Category) []string {
	for _, r := range rules {
		if r.category == category {
			return append([]string(nil), r.keywords...)
		}
	}
	return nil
}
