package search

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/reference"
)

func newTestRetriever(t *testing.T) *Retriever {
	t.Helper()
	store, err := reference.LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	return NewRetriever(store, 0)
}

func TestRetrieve_courseRegistration(t *testing.T) {
	r := newTestRetriever(t)
	got := r.Retrieve("수강신청은 언제 하나요?", models.CategorySchedule, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(got))
	}
	if got[0].Record.RecordID() != 1 || got[0].Source != "학사일정" {
		t.Errorf("unexpected snippet: id=%d source=%s", got[0].Record.RecordID(), got[0].Source)
	}
	sources := Sources(got)
	if len(sources) != 1 || sources[0].Name != "학사일정" {
		t.Errorf("Sources = %v", sources)
	}
}

func TestRetrieve_emptyAndShortTokens(t *testing.T) {
	r := newTestRetriever(t)
	for _, q := range []string{"", "   ", "a b c", "수 강"} {
		if got := r.Retrieve(q, models.CategoryOther, 5); len(got) != 0 {
			t.Errorf("Retrieve(%q) returned %d snippets, want 0", q, len(got))
		}
	}
}

func TestRetrieve_otherScansAllDomainsInOrder(t *testing.T) {
	r := newTestRetriever(t)
	got := r.Retrieve("수강신청", models.CategoryOther, 100)
	if len(got) == 0 {
		t.Fatal("expected matches")
	}
	order := map[models.Domain]int{}
	for i, d := range models.Domains {
		order[d] = i
	}
	seen := map[models.Domain]bool{}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1].Record, got[i].Record
		if order[cur.Domain()] < order[prev.Domain()] {
			t.Fatalf("domain order violated at %d: %s after %s", i, cur.Domain(), prev.Domain())
		}
		if cur.Domain() == prev.Domain() && cur.RecordID() < prev.RecordID() {
			t.Fatalf("record order violated at %d", i)
		}
	}
	for _, s := range got {
		seen[s.Record.Domain()] = true
	}
	if !seen[models.DomainSchedule] || !seen[models.DomainNotice] || !seen[models.DomainGlossary] {
		t.Errorf("expected schedule, notice and glossary matches, got %v", seen)
	}
}

func TestRetrieve_limitAndContainment(t *testing.T) {
	r := newTestRetriever(t)
	questions := []string{
		"장학금 신청 방법",
		"1학기 수강신청 기간",
		"마일리지 적립",
		"학기 시험",
	}
	for _, q := range questions {
		for _, c := range append(models.Categories, models.CategoryOther) {
			for _, limit := range []int{1, 2, 5} {
				got := r.Retrieve(q, c, limit)
				if len(got) > limit {
					t.Errorf("Retrieve(%q, %s, %d) returned %d", q, c, limit, len(got))
				}
				tokens := Tokenize(q)
				for _, s := range got {
					text := strings.ToLower(s.Record.Label() + " " + s.Record.Body())
					if !matchesAny(text, tokens) {
						t.Errorf("record %s/%d has no token from %q", s.Record.Domain(), s.Record.RecordID(), q)
					}
				}
			}
		}
	}
}

func TestRetrieve_defaultLimit(t *testing.T) {
	r := newTestRetriever(t)
	got := r.Retrieve("학기", models.CategorySchedule, 0)
	if len(got) != DefaultLimit {
		t.Errorf("expected %d snippets, got %d", DefaultLimit, len(got))
	}
}

func TestRetrieve_idempotent(t *testing.T) {
	r := newTestRetriever(t)
	a := r.Retrieve("장학금 멘토링", models.CategoryProgram, 5)
	b := r.Retrieve("장학금 멘토링", models.CategoryProgram, 5)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated Retrieve calls returned different results")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  수강신청은 언제 A 하나요?  ")
	want := []string{"수강신청은", "언제", "하나요?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
