package reference

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/campusbot/internal/models"
)

// Sheet names and column headers used by the workbook format. Headers match the YAML keys.
const (
	sheetSchedules = "schedules"
	sheetNotices   = "notices"
	sheetPrograms  = "programs"
	sheetGlossary  = "glossary"
)

var (
	scheduleColumns = []string{"id", "name", "start_date", "end_date", "semester", "schedule_type", "description", "importance"}
	noticeColumns   = []string{"id", "title", "content", "notice_type", "importance", "department"}
	programColumns  = []string{"id", "name", "program_type", "application_start", "application_end", "target",
		"application_method", "requirements", "documents", "benefits", "description"}
	glossaryColumns = []string{"id", "term", "term_en", "definition", "category"}
)

// ReadWorkbook reads a dataset from an xlsx workbook with one sheet per domain.
// The first row of each sheet names the columns; missing sheets yield empty domains.
func ReadWorkbook(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	ds := &Dataset{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		records := sheetRecords(rows)
		switch strings.ToLower(strings.TrimSpace(sheet)) {
		case sheetSchedules:
			for i, rec := range records {
				s, err := rec.schedule()
				if err != nil {
					return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
				}
				ds.Schedules = append(ds.Schedules, s)
			}
		case sheetNotices:
			for i, rec := range records {
				n, err := rec.notice()
				if err != nil {
					return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
				}
				ds.Notices = append(ds.Notices, n)
			}
		case sheetPrograms:
			for i, rec := range records {
				p, err := rec.program()
				if err != nil {
					return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
				}
				ds.Programs = append(ds.Programs, p)
			}
		case sheetGlossary:
			for i, rec := range records {
				g, err := rec.glossary()
				if err != nil {
					return nil, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
				}
				ds.Glossary = append(ds.Glossary, g)
			}
		}
	}
	return ds, nil
}

// WriteWorkbook writes ds as an xlsx workbook readable by ReadWorkbook.
func WriteWorkbook(w io.Writer, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSchedules); err != nil {
		return err
	}
	for _, name := range []string{sheetNotices, sheetPrograms, sheetGlossary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	var scheduleRows [][]interface{}
	for _, s := range ds.Schedules {
		scheduleRows = append(scheduleRows, []interface{}{
			s.ID, s.Name, s.Start.String(), dateCell(s.End), s.Semester, s.ScheduleType, s.Description, s.Importance,
		})
	}
	var noticeRows [][]interface{}
	for _, n := range ds.Notices {
		noticeRows = append(noticeRows, []interface{}{n.ID, n.Title, n.Content, n.NoticeType, n.Importance, n.Department})
	}
	var programRows [][]interface{}
	for _, p := range ds.Programs {
		programRows = append(programRows, []interface{}{
			p.ID, p.Name, p.ProgramType, dateCell(p.ApplicationStart), dateCell(p.ApplicationEnd), p.Target,
			p.ApplicationMethod, p.Requirements, p.Documents, p.Benefits, p.Description,
		})
	}
	var glossaryRows [][]interface{}
	for _, g := range ds.Glossary {
		glossaryRows = append(glossaryRows, []interface{}{g.ID, g.Term, g.TermEn, g.Definition, g.Category})
	}

	sheets := []struct {
		name    string
		columns []string
		rows    [][]interface{}
	}{
		{sheetSchedules, scheduleColumns, scheduleRows},
		{sheetNotices, noticeColumns, noticeRows},
		{sheetPrograms, programColumns, programRows},
		{sheetGlossary, glossaryColumns, glossaryRows},
	}
	for _, sh := range sheets {
		header := make([]interface{}, len(sh.columns))
		for i, c := range sh.columns {
			header[i] = c
		}
		if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
			return fmt.Errorf("write header for sheet %q: %w", sh.name, err)
		}
		for i, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			row := row
			if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
				return fmt.Errorf("write sheet %q row %d: %w", sh.name, i+2, err)
			}
		}
	}
	return f.Write(w)
}

func dateCell(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// sheetRow maps column header to cell text for one data row.
type sheetRow map[string]string

func sheetRecords(rows [][]string) []sheetRow {
	if len(rows) < 2 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	var out []sheetRow
	for _, row := range rows[1:] {
		rec := make(sheetRow, len(header))
		empty := true
		for i, col := range header {
			if i < len(row) {
				v := strings.TrimSpace(row[i])
				rec[col] = v
				if v != "" {
					empty = false
				}
			}
		}
		if !empty {
			out = append(out, rec)
		}
	}
	return out
}

func (r sheetRow) int(key string) (int, error) {
	v := r[key]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", key, v)
	}
	return n, nil
}

func (r sheetRow) date(key string) (*models.Date, error) {
	v := r[key]
	if v == "" {
		return nil, nil
	}
	d, err := models.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", key, err)
	}
	return &d, nil
}

func (r sheetRow) schedule() (*models.Schedule, error) {
	id, err := r.int("id")
	if err != nil {
		return nil, err
	}
	importance, err := r.int("importance")
	if err != nil {
		return nil, err
	}
	start, err := r.date("start_date")
	if err != nil {
		return nil, err
	}
	end, err := r.date("end_date")
	if err != nil {
		return nil, err
	}
	s := &models.Schedule{
		ID:           id,
		Name:         r["name"],
		End:          end,
		Semester:     r["semester"],
		ScheduleType: r["schedule_type"],
		Description:  r["description"],
		Importance:   importance,
	}
	if start != nil {
		s.Start = *start
	}
	return s, nil
}

func (r sheetRow) notice() (*models.Notice, error) {
	id, err := r.int("id")
	if err != nil {
		return nil, err
	}
	return &models.Notice{
		ID:         id,
		Title:      r["title"],
		Content:    r["content"],
		NoticeType: r["notice_type"],
		Importance: r["importance"],
		Department: r["department"],
	}, nil
}

func (r sheetRow) program() (*models.Program, error) {
	id, err := r.int("id")
	if err != nil {
		return nil, err
	}
	start, err := r.date("application_start")
	if err != nil {
		return nil, err
	}
	end, err := r.date("application_end")
	if err != nil {
		return nil, err
	}
	return &models.Program{
		ID:                id,
		Name:              r["name"],
		ProgramType:       r["program_type"],
		ApplicationStart:  start,
		ApplicationEnd:    end,
		Target:            r["target"],
		ApplicationMethod: r["application_method"],
		Requirements:      r["requirements"],
		Documents:         r["documents"],
		Benefits:          r["benefits"],
		Description:       r["description"],
	}, nil
}

func (r sheetRow) glossary() (*models.GlossaryTerm, error) {
	id, err := r.int("id")
	if err != nil {
		return nil, err
	}
	return &models.GlossaryTerm{
		ID:         id,
		Term:       r["term"],
		TermEn:     r["term_en"],
		Definition: r["definition"],
		Category:   r["category"],
	}, nil
}
