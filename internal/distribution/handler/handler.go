// Package handler exposes the distribution pipeline over HTTP. All read
// endpoints serve from the in-memory snapshot; only /refresh and /import
// replace it.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"hemostats/internal/config"
	"hemostats/internal/distribution/model"
	"hemostats/internal/distribution/service"
	"hemostats/internal/fetcher"
	"hemostats/internal/fileio"
	"hemostats/internal/ingest"
	"hemostats/internal/insights"
	"hemostats/internal/middleware"
	"hemostats/internal/store"
)

type Handler struct {
	cfg   config.Config
	log   zerolog.Logger
	store *store.Store
	svc   *service.Service
	fetch *fetcher.Fetcher
	ai    *insights.Client
}

func New(cfg config.Config, log zerolog.Logger, st *store.Store, svc *service.Service, f *fetcher.Fetcher, ai *insights.Client) *Handler {
	return &Handler{cfg: cfg, log: log, store: st, svc: svc, fetch: f, ai: ai}
}

func (h *Handler) logger(r *http.Request) zerolog.Logger {
	if id := middleware.GetRequestID(r); id != "" {
		return h.log.With().Str("req_id", id).Logger()
	}
	return h.log
}

// Refresh re-downloads the published sheet and replaces the snapshot. A
// failed fetch or an unusable feed clears the collection: the dashboard
// shows the error, never stale numbers.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r)
	start := time.Now()

	text, err := h.fetch.Fetch(r.Context())
	if err != nil {
		h.store.SetError(err, "sheet")
		log.Error().Err(err).Msg("sheet fetch failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	rows, err := h.svc.IngestText(text)
	if err != nil {
		h.store.SetError(err, "sheet")
		log.Error().Err(err).Msg("sheet ingest failed")
		status := http.StatusBadGateway
		if errors.Is(err, ingest.ErrSchema) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	h.store.SetRows(rows, "sheet")

	log.Info().
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("refresh done")
	writeJSON(w, h.store.Status())
}

// Import ingests an uploaded CSV/XLS/XLSX file in place of the sheet feed.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r)
	defer r.Body.Close()

	if err := r.ParseMultipartForm(int64(h.cfg.MaxUploadMB) << 20); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	grid, err := fileio.ReadRows(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}
	rows, err := h.svc.IngestGrid(grid)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ingest.ErrSchema) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	h.store.SetRows(rows, "import:"+header.Filename)

	log.Info().Str("file", header.Filename).Int("rows", len(rows)).Msg("import done")
	writeJSON(w, h.store.Status())
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Status())
}

func (h *Handler) Sites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, service.Sites(h.store.Snapshot()))
}

// Rows returns the filtered aggregated collection.
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	rows := service.Select(h.store.Snapshot(), filterFromQuery(r))
	writeJSON(w, rows)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rows := service.Select(h.store.Snapshot(), filterFromQuery(r))
	writeJSON(w, service.ComputeStats(rows))
}

// Annual serves the twelve monthly trend buckets for one year.
func (h *Handler) Annual(w http.ResponseWriter, r *http.Request) {
	year := atoi(r.URL.Query().Get("year"), time.Now().Year())
	f := filterFromQuery(r)
	f.Scope = service.ScopeAll
	rows := service.Select(h.store.Snapshot(), f)
	writeJSON(w, service.AnnualTrend(rows, year))
}

func (h *Handler) SynthesisSites(w http.ResponseWriter, r *http.Request) {
	rows := service.Select(h.store.Snapshot(), filterFromQuery(r))
	writeJSON(w, service.Summarize(rows, service.BySite))
}

func (h *Handler) SynthesisProducts(w http.ResponseWriter, r *http.Request) {
	rows := service.Select(h.store.Snapshot(), filterFromQuery(r))
	writeJSON(w, service.ProductSynthesis(rows))
}

func (h *Handler) SynthesisPoles(w http.ResponseWriter, r *http.Request) {
	rows := service.Select(h.store.Snapshot(), filterFromQuery(r))
	writeJSON(w, service.Summarize(rows, service.ByPole))
}

// Insights builds the per-site vs national summary pair and asks the model
// for narrative blocks. The endpoint always answers 200 with a list; a
// generation failure yields the standard fallback warning.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var body struct {
		Site   string `json:"site"`
		Period string `json:"period,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body: "+err.Error())
		return
	}
	if body.Site == "" {
		writeError(w, http.StatusBadRequest, "site is required")
		return
	}
	if body.Period == "" {
		body.Period = "toutes périodes"
	}

	all := h.store.Snapshot()
	siteRows := service.Select(all, service.Filter{Site: body.Site, Scope: service.ScopeAll})
	req := insights.Request{
		SiteSummary:     productTotals(service.Summarize(siteRows, service.ByProduct), true),
		NationalSummary: productTotals(service.Summarize(all, service.ByProduct), false),
		Metadata:        insights.Metadata{Site: body.Site, Period: body.Period},
	}
	writeJSON(w, h.ai.Generate(r.Context(), req))
}

func productTotals(sums []model.Summary, withDistribution bool) []insights.ProductTotal {
	out := make([]insights.ProductTotal, 0, len(sums))
	for _, s := range sums {
		pt := insights.ProductTotal{Product: s.ProductType, Total: s.Total}
		if withDistribution {
			pt.Distribution = s.Counts
		}
		out = append(out, pt)
	}
	return out
}
