package reference

import (
	"sort"

	"github.com/hyperjump/campusbot/internal/models"
)

// FilterKeys lists the exact-match filters each listing accepts.
var FilterKeys = map[models.Domain][]string{
	models.DomainSchedule: {"semester", "schedule_type"},
	models.DomainNotice:   {"category"},
	models.DomainProgram:  {"program_type"},
	models.DomainGlossary: {"category"},
}

// MatchFilters reports whether rec satisfies every non-empty filter. Unknown keys never match.
func MatchFilters(rec models.FactRecord, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		got, ok := filterField(rec, key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func filterField(rec models.FactRecord, key string) (string, bool) {
	switch r := rec.(type) {
	case *models.Schedule:
		switch key {
		case "semester":
			return r.Semester, true
		case "schedule_type":
			return r.ScheduleType, true
		}
	case *models.Notice:
		if key == "category" {
			return r.NoticeType, true
		}
	case *models.Program:
		if key == "program_type" {
			return r.ProgramType, true
		}
	case *models.GlossaryTerm:
		if key == "category" {
			return r.Category, true
		}
	}
	return "", false
}

// List returns one page of q.Domain's records that satisfy the filters and, when allow is non-nil,
// whose ids are in allow. Schedules are ordered by importance (highest first); other domains keep
// source order. q must already be validated.
func (s *Store) List(q models.ListQuery, allow map[int]bool) models.ListResponse {
	var matched []models.FactRecord
	for _, rec := range s.records[q.Domain] {
		if allow != nil && !allow[rec.RecordID()] {
			continue
		}
		if MatchFilters(rec, q.Filters) {
			matched = append(matched, rec)
		}
	}
	if q.Domain == models.DomainSchedule {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].(*models.Schedule).Importance > matched[j].(*models.Schedule).Importance
		})
	}

	resp := models.ListResponse{
		Items:  []models.FactRecord{},
		Total:  len(matched),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if q.Offset >= len(matched) {
		return resp
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	resp.Items = matched[q.Offset:end]
	return resp
}
