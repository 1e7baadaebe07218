package store

import (
	"errors"
	"testing"

	"hemostats/internal/distribution/model"
)

func TestSetRowsClearsError(t *testing.T) {
	s := New()
	s.SetError(errors.New("boom"), "sheet")
	if st := s.Status(); st.Error == "" || st.Rows != 0 {
		t.Fatalf("status after error = %+v", st)
	}

	s.SetRows([]model.Row{{Site: "S1", Total: 1}}, "sheet")
	st := s.Status()
	if st.Error != "" {
		t.Fatalf("error not cleared: %+v", st)
	}
	if st.Rows != 1 || st.Source != "sheet" || st.LastSync == nil {
		t.Fatalf("status = %+v", st)
	}
}

func TestSetErrorDiscardsRows(t *testing.T) {
	s := New()
	s.SetRows([]model.Row{{Site: "S1"}, {Site: "S2"}}, "sheet")
	s.SetError(errors.New("fetch failed"), "sheet")

	if rows := s.Snapshot(); len(rows) != 0 {
		t.Fatalf("snapshot after failed ingest has %d rows, want 0", len(rows))
	}
	st := s.Status()
	if st.Rows != 0 || st.Error != "fetch failed" {
		t.Fatalf("status = %+v", st)
	}
}

func TestStatusBeforeFirstSync(t *testing.T) {
	st := New().Status()
	if st.LastSync != nil || st.Rows != 0 || st.Error != "" {
		t.Fatalf("fresh status = %+v", st)
	}
}
