package reference

import (
	"testing"

	"github.com/hyperjump/campusbot/internal/models"
)

func TestStore_List(t *testing.T) {
	store, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("schedules sorted by importance", func(t *testing.T) {
		q := models.ListQuery{Domain: models.DomainSchedule}
		_ = q.Validate(20, 100)
		resp := store.List(q, nil)
		if resp.Total != 10 || len(resp.Items) != 10 {
			t.Fatalf("got total=%d items=%d", resp.Total, len(resp.Items))
		}
		prev := 11
		for _, item := range resp.Items {
			imp := item.(*models.Schedule).Importance
			if imp > prev {
				t.Errorf("importance %d after %d", imp, prev)
			}
			prev = imp
		}
		if resp.Items[0].RecordID() != 1 {
			t.Errorf("ties should keep source order, first id = %d", resp.Items[0].RecordID())
		}
	})

	t.Run("schedule filters", func(t *testing.T) {
		q := models.ListQuery{Domain: models.DomainSchedule, Filters: map[string]string{
			"semester": "1학기", "schedule_type": "시험",
		}}
		_ = q.Validate(20, 100)
		resp := store.List(q, nil)
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
	})

	t.Run("notice paging", func(t *testing.T) {
		q := models.ListQuery{Domain: models.DomainNotice, Limit: 2, Offset: 4}
		_ = q.Validate(20, 100)
		resp := store.List(q, nil)
		if resp.Total != 6 || len(resp.Items) != 2 {
			t.Fatalf("total=%d items=%d", resp.Total, len(resp.Items))
		}
		if resp.Items[0].RecordID() != 5 {
			t.Errorf("first id = %d, want 5", resp.Items[0].RecordID())
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		q := models.ListQuery{Domain: models.DomainProgram, Offset: 50}
		_ = q.Validate(20, 100)
		resp := store.List(q, nil)
		if resp.Total != 7 || len(resp.Items) != 0 || resp.Items == nil {
			t.Errorf("total=%d items=%v", resp.Total, resp.Items)
		}
	})

	t.Run("allow set", func(t *testing.T) {
		q := models.ListQuery{Domain: models.DomainGlossary}
		_ = q.Validate(20, 100)
		resp := store.List(q, map[int]bool{2: true, 3: true})
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
	})

	t.Run("unknown filter matches nothing", func(t *testing.T) {
		q := models.ListQuery{Domain: models.DomainProgram, Filters: map[string]string{"semester": "1학기"}}
		_ = q.Validate(20, 100)
		if resp := store.List(q, nil); resp.Total != 0 {
			t.Errorf("total = %d, want 0", resp.Total)
		}
	})
}
