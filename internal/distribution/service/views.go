package service

import (
	"math"
	"sort"
	"strings"

	"hemostats/internal/distribution/model"
)

// Scope is the time slice of a dashboard view.
type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeDay   Scope = "day"
	ScopeMonth Scope = "month"
	ScopeYear  Scope = "year"
)

// Filter selects the subset of the aggregated collection a view consumes.
// Empty string fields mean "no filter"; MonthIdx is zero-based.
type Filter struct {
	Site     string
	Pole     string
	Scope    Scope
	Day      int
	MonthIdx int
	Year     int
}

// Select is a pure function of (rows, filter): the same inputs always yield
// the same subset. Rows without a usable date never appear in a scoped mode
// but pass through unscoped selection.
func Select(rows []model.Row, f Filter) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if f.Site != "" && r.Site != f.Site {
			continue
		}
		if f.Pole != "" && r.Pole != f.Pole {
			continue
		}
		switch f.Scope {
		case ScopeDay:
			if !r.HasDate() || r.Day != f.Day || r.MonthIdx != f.MonthIdx || r.Year != f.Year {
				continue
			}
		case ScopeMonth:
			if !r.HasDate() || r.MonthIdx != f.MonthIdx || r.Year != f.Year {
				continue
			}
		case ScopeYear:
			if !r.HasDate() || r.Year != f.Year {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// MonthNames are the French month labels used by the annual trend.
var MonthNames = [12]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

func shortMonth(i int) string {
	r := []rune(MonthNames[i])
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// AnnualTrend buckets one year of rows into twelve monthly totals with the
// product-family breakdown the annual charts plot. Family membership is by
// label substring, mirroring how the dashboard categorizes products.
func AnnualTrend(rows []model.Row, year int) []model.MonthlyTrend {
	out := make([]model.MonthlyTrend, 12)
	for i := range out {
		out[i].Month = shortMonth(i)
	}
	for _, r := range rows {
		if !r.HasDate() || r.Year != year {
			continue
		}
		t := &out[r.MonthIdx]
		t.Total += r.Total
		p := strings.ToUpper(r.ProductType)
		if strings.Contains(p, "CGR") {
			t.CGR += r.Total
		}
		if strings.Contains(p, "PLASMA") {
			t.Plasma += r.Total
		}
		if strings.Contains(p, "PLAQUETTE") {
			t.Platelets += r.Total
		}
	}
	return out
}

// ComputeStats derives the KPI card values for one filtered view.
func ComputeStats(rows []model.Row) model.Stats {
	var st model.Stats
	facilities := make(map[string]struct{})
	products := make(map[string]struct{})
	for _, r := range rows {
		st.Total += r.Total
		st.Returned += r.Returned
		facilities[r.Facility] = struct{}{}
		products[r.ProductType] = struct{}{}
		p := strings.ToUpper(r.ProductType)
		if strings.Contains(p, "CGR") {
			st.CGR += r.Total
		}
		if strings.Contains(p, "PLASMA") {
			st.Plasma += r.Total
		}
		if strings.Contains(p, "PLAQUETTE") {
			st.Platelets += r.Total
		}
	}
	st.Facilities = len(facilities)
	st.Products = len(products)
	pct := func(v int) int {
		if st.Total <= 0 {
			return 0
		}
		return int(math.Round(float64(v) / float64(st.Total) * 100))
	}
	st.CGRPct = pct(st.CGR)
	st.PlasmaPct = pct(st.Plasma)
	st.PlateletsPct = pct(st.Platelets)
	return st
}

// Sites lists the distinct site names in the collection, sorted.
func Sites(rows []model.Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Site] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
