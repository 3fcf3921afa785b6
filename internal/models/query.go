package models

import "fmt"

// Category is the topic bucket a question is classified into.
type Category string

const (
	CategorySchedule     Category = "schedule"
	CategoryNotice       Category = "notice"
	CategoryProgram      Category = "program"
	CategoryAcademicInfo Category = "academic-info"
	CategoryOther        Category = "other"
	// CategoryError is reported only with the fallback answer of a failed request.
	CategoryError Category = "error"
)

// Categories lists the scored categories in enumeration order. Ties resolve to the earlier entry.
var Categories = []Category{CategorySchedule, CategoryNotice, CategoryProgram, CategoryAcademicInfo}

// Label returns the Korean display name.
func (c Category) Label() string {
	switch c {
	case CategorySchedule:
		return "학사일정"
	case CategoryNotice:
		return "공지사항"
	case CategoryProgram:
		return "지원프로그램"
	case CategoryAcademicInfo:
		return "학사정보"
	}
	return "기타"
}

// Domains returns the reference domains scanned for the category. Other scans every domain.
func (c Category) Domains() []Domain {
	switch c {
	case CategorySchedule:
		return []Domain{DomainSchedule}
	case CategoryNotice:
		return []Domain{DomainNotice}
	case CategoryProgram:
		return []Domain{DomainProgram}
	case CategoryAcademicInfo:
		return []Domain{DomainGlossary}
	}
	return Domains
}

// ListQuery is a paginated, filtered listing request over one domain.
type ListQuery struct {
	Domain Domain
	// Filters holds exact-match field filters such as semester or program_type.
	Filters map[string]string
	// Q is an optional full-text query.
	Q      string
	Limit  int
	Offset int
}

// Validate normalizes paging. Limit falls back to defaultLimit and is capped at maxLimit.
func (q *ListQuery) Validate(defaultLimit, maxLimit int) error {
	if _, ok := ParseDomain(string(q.Domain)); !ok {
		return fmt.Errorf("unknown domain %q", q.Domain)
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// ListResponse is one page of records.
type ListResponse struct {
	Items  []FactRecord `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}
