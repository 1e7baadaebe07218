package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"hemostats/internal/distribution/service"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// filterFromQuery maps the common query parameters onto a view filter.
// `month` is 1-based on the wire and zero-based internally.
func filterFromQuery(r *http.Request) service.Filter {
	q := r.URL.Query()
	f := service.Filter{
		Site: q.Get("site"),
		Pole: q.Get("pole"),
	}
	switch q.Get("scope") {
	case "day":
		f.Scope = service.ScopeDay
	case "month":
		f.Scope = service.ScopeMonth
	case "year":
		f.Scope = service.ScopeYear
	default:
		f.Scope = service.ScopeAll
	}
	f.Day = atoi(q.Get("day"), 0)
	f.MonthIdx = atoi(q.Get("month"), 0) - 1
	f.Year = atoi(q.Get("year"), 0)
	return f
}
