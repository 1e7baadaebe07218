package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hemostats/internal/config"
	"hemostats/internal/distribution/model"
	"hemostats/internal/distribution/service"
	"hemostats/internal/fetcher"
	"hemostats/internal/insights"
	"hemostats/internal/poles"
	"hemostats/internal/store"
)

func newHandler(t *testing.T, sheetURL string) (*Handler, *store.Store) {
	t.Helper()
	table, err := poles.Load()
	if err != nil {
		t.Fatalf("poles.Load: %v", err)
	}
	cfg := config.Config{MaxUploadMB: 4}
	st := store.New()
	h := New(cfg, zerolog.Nop(), st, service.New(table),
		fetcher.New(sheetURL, 5*time.Second),
		insights.New("", "test-model", zerolog.Nop()))
	return h, st
}

func seed(st *store.Store) {
	counts := model.NewCounts()
	counts["A+"] = 120
	st.SetRows([]model.Row{{
		Pole: "PRES ABIDJAN", Site: "01 CRTS TREICHVILLE", Facility: "CHU X",
		ProductType: "CGR ADULTE", Date: "15/03/2026", Day: 15, MonthIdx: 2, Year: 2026,
		Counts: counts, Total: 120,
	}}, "test")
}

func TestStatus(t *testing.T) {
	h, st := newHandler(t, "")
	seed(st)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got store.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Rows != 1 || got.Source != "test" {
		t.Fatalf("status = %+v", got)
	}
}

func TestRowsFiltered(t *testing.T) {
	h, st := newHandler(t, "")
	seed(st)

	rec := httptest.NewRecorder()
	h.Rows(rec, httptest.NewRequest(http.MethodGet, "/api/rows?scope=month&month=3&year=2026", nil))
	var rows []model.Row
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Total != 120 {
		t.Fatalf("rows = %+v", rows)
	}

	rec = httptest.NewRecorder()
	h.Rows(rec, httptest.NewRequest(http.MethodGet, "/api/rows?scope=month&month=4&year=2026", nil))
	rows = nil
	_ = json.Unmarshal(rec.Body.Bytes(), &rows)
	if len(rows) != 0 {
		t.Fatalf("april selection = %+v", rows)
	}
}

func TestStats(t *testing.T) {
	h, st := newHandler(t, "")
	seed(st)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var st2 model.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st2.Total != 120 || st2.CGR != 120 || st2.CGRPct != 100 {
		t.Fatalf("stats = %+v", st2)
	}
}

func TestImportCSV(t *testing.T) {
	h, st := newHandler(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "distribution.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("SI_NOM,NOMBRE,SA_GROUPE\n20 CRTS BOUAKE,40,O+\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Import(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	rows := st.Snapshot()
	if len(rows) != 1 || rows[0].Pole != "PRES BOUAKE" || rows[0].Total != 40 {
		t.Fatalf("snapshot = %+v", rows)
	}
}

func TestImportMissingFile(t *testing.T) {
	h, _ := newHandler(t, "")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Import(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("SI_NOM,NOMBRE,SA_GROUPE\n01 CRTS TREICHVILLE,120,A+\n"))
	}))
	defer sheet.Close()

	h, st := newHandler(t, sheet.URL)
	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rows := st.Snapshot(); len(rows) != 1 || rows[0].Pole != "PRES ABIDJAN" {
		t.Fatalf("snapshot = %+v", rows)
	}
}

func TestRefreshFailureClearsStore(t *testing.T) {
	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!doctype html><html>login</html>"))
	}))
	defer sheet.Close()

	h, st := newHandler(t, sheet.URL)
	seed(st)

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if rows := st.Snapshot(); len(rows) != 0 {
		t.Fatalf("stale rows survived a failed refresh: %+v", rows)
	}
	if status := st.Status(); status.Error == "" {
		t.Fatal("error not recorded")
	}
}

func TestInsightsRequiresSite(t *testing.T) {
	h, _ := newHandler(t, "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/insights", bytes.NewReader([]byte(`{}`)))
	h.Insights(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestInsightsAlwaysAnswersWithList(t *testing.T) {
	h, st := newHandler(t, "")
	seed(st)

	rec := httptest.NewRecorder()
	body := []byte(`{"site":"01 CRTS TREICHVILLE","period":"Mars 2026"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/insights", bytes.NewReader(body))
	h.Insights(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []model.Insight
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// no API key configured: the standard fallback warning
	if len(out) != 1 || out[0].Type != "warning" {
		t.Fatalf("insights = %+v", out)
	}
}
