package reference

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/campusbot/internal/models"
)

func TestLoadDefault(t *testing.T) {
	store, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	want := map[models.Domain]int{
		models.DomainSchedule: 10,
		models.DomainNotice:   6,
		models.DomainProgram:  7,
		models.DomainGlossary: 7,
	}
	for d, n := range want {
		if got := store.Count(d); got != n {
			t.Errorf("Count(%s) = %d, want %d", d, got, n)
		}
	}
	rec, ok := store.Get(models.DomainSchedule, 1)
	if !ok {
		t.Fatal("schedule 1 not found")
	}
	s := rec.(*models.Schedule)
	if s.Name != "1학기 수강신청" || s.Period() != "2025-02-25 ~ 2025-02-28" {
		t.Errorf("unexpected schedule: %+v", s)
	}
	if !strings.Contains(s.Description, "수강신청은") {
		t.Errorf("course registration description should mention 수강신청은: %q", s.Description)
	}
}

func TestLoadYAML_rejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"end before start", `
schedules:
  - id: 1
    name: x
    start_date: "2025-03-01"
    end_date: "2025-02-01"
`},
		{"duplicate id", `
notices:
  - id: 1
    title: a
  - id: 1
    title: b
`},
		{"bad date", `
schedules:
  - id: 1
    name: x
    start_date: "03/01/2025"
`},
		{"missing definition", `
glossary:
  - id: 1
    term: 학점
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadYAML([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_pathAndEmpty(t *testing.T) {
	store, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if store.Count(models.DomainNotice) == 0 {
		t.Error("empty path should load embedded data")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "ref.yaml")
	content := `
glossary:
  - id: 3
    term: 재수강
    definition: 이미 수강한 과목을 다시 수강하는 것
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	store, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if store.Count(models.DomainGlossary) != 1 || store.Count(models.DomainSchedule) != 0 {
		t.Errorf("unexpected counts: %v", store.Counts())
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	store, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, store.Dataset()); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "reference.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load xlsx: %v", err)
	}
	for _, d := range models.Domains {
		if loaded.Count(d) != store.Count(d) {
			t.Errorf("%s: got %d records, want %d", d, loaded.Count(d), store.Count(d))
		}
	}
	rec, ok := loaded.Get(models.DomainProgram, 7)
	if !ok {
		t.Fatal("program 7 missing")
	}
	p := rec.(*models.Program)
	if p.ApplicationStart != nil || p.ApplicationEnd != nil {
		t.Errorf("program 7 has no application window, got %q", p.ApplicationPeriod())
	}
	rec, _ = loaded.Get(models.DomainSchedule, 8)
	if got := rec.(*models.Schedule).Period(); got != "2025-02-15 ~ 2025-03-07" {
		t.Errorf("schedule 8 period = %q", got)
	}
}

func TestDatasetEncode(t *testing.T) {
	store, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	data, err := store.Dataset().Encode()
	if err != nil {
		t.Fatal(err)
	}
	again, err := LoadYAML(data)
	if err != nil {
		t.Fatalf("re-load encoded dataset: %v", err)
	}
	if again.Count(models.DomainSchedule) != store.Count(models.DomainSchedule) {
		t.Error("schedule count changed after encode")
	}
}
