package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Domain is one of the fixed groups of reference records.
type Domain string

const (
	DomainSchedule Domain = "schedule"
	DomainNotice   Domain = "notice"
	DomainProgram  Domain = "program"
	DomainGlossary Domain = "glossary"
)

// Domains lists every domain in scan order. Retrieval output follows this order.
var Domains = []Domain{DomainSchedule, DomainNotice, DomainProgram, DomainGlossary}

// Label returns the display name cited as a source.
func (d Domain) Label() string {
	switch d {
	case DomainSchedule:
		return "학사일정"
	case DomainNotice:
		return "공지사항"
	case DomainProgram:
		return "지원프로그램"
	case DomainGlossary:
		return "학사용어"
	}
	return string(d)
}

// ParseDomain maps a path segment such as "schedules" or "glossary" to a Domain.
func ParseDomain(s string) (Domain, bool) {
	switch s {
	case "schedule", "schedules":
		return DomainSchedule, true
	case "notice", "notices":
		return DomainNotice, true
	case "program", "programs":
		return DomainProgram, true
	case "glossary", "terms":
		return DomainGlossary, true
	}
	return "", false
}

var errEmptyRecord = errors.New("empty record entry")

// FactRecord is an immutable reference record. The set of implementations is closed:
// Schedule, Notice, Program and GlossaryTerm.
type FactRecord interface {
	RecordID() int
	Domain() Domain
	// Label is the record's name, title or term.
	Label() string
	// Body is the record's description, content or definition.
	Body() string
	factRecord()
}

// Schedule is an academic calendar entry.
type Schedule struct {
	ID           int    `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Start        Date   `json:"start_date" yaml:"start_date"`
	End          *Date  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Semester     string `json:"semester,omitempty" yaml:"semester,omitempty"`
	ScheduleType string `json:"schedule_type,omitempty" yaml:"schedule_type,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Importance   int    `json:"importance" yaml:"importance"`
}

func (s *Schedule) RecordID() int  { return s.ID }
func (s *Schedule) Domain() Domain { return DomainSchedule }
func (s *Schedule) Label() string  { return s.Name }
func (s *Schedule) Body() string   { return s.Description }
func (*Schedule) factRecord()      {}

// Period renders the date range as "start ~ end", or just start for single-day entries.
func (s *Schedule) Period() string {
	if s.End == nil || s.End.Equal(s.Start) {
		return s.Start.String()
	}
	return s.Start.String() + " ~ " + s.End.String()
}

// Validate checks required fields and that the range does not run backwards.
func (s *Schedule) Validate() error {
	if s == nil {
		return errEmptyRecord
	}
	if s.Name == "" {
		return fmt.Errorf("schedule %d: name is required", s.ID)
	}
	if s.Start.IsZero() {
		return fmt.Errorf("schedule %d: start_date is required", s.ID)
	}
	if s.End != nil && s.End.Before(s.Start) {
		return fmt.Errorf("schedule %d: end_date %s precedes start_date %s", s.ID, s.End, s.Start)
	}
	return nil
}

// Notice is an announcement.
type Notice struct {
	ID         int    `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Content    string `json:"content" yaml:"content"`
	NoticeType string `json:"notice_type,omitempty" yaml:"notice_type,omitempty"`
	Importance string `json:"importance,omitempty" yaml:"importance,omitempty"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
}

func (n *Notice) RecordID() int  { return n.ID }
func (n *Notice) Domain() Domain { return DomainNotice }
func (n *Notice) Label() string  { return n.Title }
func (n *Notice) Body() string   { return n.Content }
func (*Notice) factRecord()      {}

// Validate checks required fields.
func (n *Notice) Validate() error {
	if n == nil {
		return errEmptyRecord
	}
	if n.Title == "" {
		return fmt.Errorf("notice %d: title is required", n.ID)
	}
	return nil
}

// Program is a student support program such as a scholarship or mentoring scheme.
type Program struct {
	ID                int    `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	ProgramType       string `json:"program_type,omitempty" yaml:"program_type,omitempty"`
	ApplicationStart  *Date  `json:"application_start,omitempty" yaml:"application_start,omitempty"`
	ApplicationEnd    *Date  `json:"application_end,omitempty" yaml:"application_end,omitempty"`
	Target            string `json:"target,omitempty" yaml:"target,omitempty"`
	ApplicationMethod string `json:"application_method,omitempty" yaml:"application_method,omitempty"`
	Requirements      string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Documents         string `json:"documents,omitempty" yaml:"documents,omitempty"`
	Benefits          string `json:"benefits,omitempty" yaml:"benefits,omitempty"`
	Description       string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (p *Program) RecordID() int  { return p.ID }
func (p *Program) Domain() Domain { return DomainProgram }
func (p *Program) Label() string  { return p.Name }
func (p *Program) Body() string   { return p.Description }
func (*Program) factRecord()      {}

// ApplicationPeriod renders the application window, or "" when none is set.
func (p *Program) ApplicationPeriod() string {
	switch {
	case p.ApplicationStart != nil && p.ApplicationEnd != nil:
		return p.ApplicationStart.String() + " ~ " + p.ApplicationEnd.String()
	case p.ApplicationStart != nil:
		return p.ApplicationStart.String() + " ~"
	case p.ApplicationEnd != nil:
		return "~ " + p.ApplicationEnd.String()
	}
	return ""
}

// Validate checks required fields and the application window.
func (p *Program) Validate() error {
	if p == nil {
		return errEmptyRecord
	}
	if p.Name == "" {
		return fmt.Errorf("program %d: name is required", p.ID)
	}
	if p.ApplicationStart != nil && p.ApplicationEnd != nil && p.ApplicationEnd.Before(*p.ApplicationStart) {
		return fmt.Errorf("program %d: application_end %s precedes application_start %s",
			p.ID, p.ApplicationEnd, p.ApplicationStart)
	}
	return nil
}

// GlossaryTerm defines an academic term.
type GlossaryTerm struct {
	ID         int    `json:"id" yaml:"id"`
	Term       string `json:"term" yaml:"term"`
	TermEn     string `json:"term_en,omitempty" yaml:"term_en,omitempty"`
	Definition string `json:"definition" yaml:"definition"`
	Category   string `json:"category,omitempty" yaml:"category,omitempty"`
}

func (g *GlossaryTerm) RecordID() int  { return g.ID }
func (g *GlossaryTerm) Domain() Domain { return DomainGlossary }
func (g *GlossaryTerm) Label() string  { return g.Term }
func (g *GlossaryTerm) Body() string   { return g.Definition }
func (*GlossaryTerm) factRecord()      {}

// Validate checks required fields.
func (g *GlossaryTerm) Validate() error {
	if g == nil {
		return errEmptyRecord
	}
	if g.Term == "" {
		return fmt.Errorf("glossary term %d: term is required", g.ID)
	}
	if g.Definition == "" {
		return fmt.Errorf("glossary term %d: definition is required", g.ID)
	}
	return nil
}

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	t time.Time
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// MustDate is ParseDate for literals known to be valid.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDate(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}
