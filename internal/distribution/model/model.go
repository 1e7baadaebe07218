package model

import "hemostats/internal/ingest"

// Row is the canonical aggregated record: exactly one per distinct
// (pole, site, facility, product, date) tuple. Counts always carries all
// eight blood-group keys so consumers never need existence checks, and Total
// equals the sum of Counts at all times.
type Row struct {
	Pole        string         `json:"pole"`
	Site        string         `json:"site"`
	Facility    string         `json:"facility"`
	ProductType string         `json:"productType"`
	Date        string         `json:"date,omitempty"`
	Day         int            `json:"day"`
	MonthIdx    int            `json:"monthIdx"`
	Year        int            `json:"year"`
	Counts      map[string]int `json:"counts"`
	Total       int            `json:"total"`
	Returned    int            `json:"returned"`
}

// HasDate reports whether the row carries a usable calendar date.
func (r Row) HasDate() bool { return r.MonthIdx >= 0 }

// NewCounts returns a zero-filled blood-group map with all eight keys.
func NewCounts() map[string]int {
	m := make(map[string]int, len(ingest.BloodGroups))
	for _, g := range ingest.BloodGroups {
		m[g] = 0
	}
	return m
}

// GroupKey addresses one bucket of a secondary aggregation. Unused dimensions
// stay empty.
type GroupKey struct {
	Pole        string `json:"pole,omitempty"`
	Site        string `json:"site,omitempty"`
	ProductType string `json:"productType,omitempty"`
}

// Summary is one secondary-aggregation bucket.
type Summary struct {
	GroupKey
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
	Returned int            `json:"returned"`
}

// SynthesisRow is one line of the product-synthesis table. Subtotal rows
// carry the per-site sums recomputed from the detail lines above them.
type SynthesisRow struct {
	Summary
	Subtotal bool `json:"subtotal,omitempty"`
}

// MonthlyTrend is one bucket of the annual chart.
type MonthlyTrend struct {
	Month     string `json:"month"`
	Total     int    `json:"total"`
	CGR       int    `json:"cgr"`
	Plasma    int    `json:"plasma"`
	Platelets int    `json:"plaquettes"`
}

// Stats are the dashboard KPI cards for one filtered view.
type Stats struct {
	Total        int `json:"total"`
	Returned     int `json:"returned"`
	CGR          int `json:"cgr"`
	CGRPct       int `json:"cgrPct"`
	Plasma       int `json:"plasma"`
	PlasmaPct    int `json:"plasmaPct"`
	Platelets    int `json:"plaquettes"`
	PlateletsPct int `json:"plaquettesPct"`
	Facilities   int `json:"facilities"`
	Products     int `json:"products"`
}

// Insight is one narrative block of the AI analysis panel.
type Insight struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"` // info | warning | success
}
