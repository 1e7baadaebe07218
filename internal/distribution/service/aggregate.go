package service

import (
	"sort"
	"strings"

	"hemostats/internal/distribution/model"
	"hemostats/internal/ingest"
	"hemostats/internal/poles"
)

// Service runs the ingestion pipeline: parse, classify, aggregate.
type Service struct {
	table *poles.Table
}

func New(table *poles.Table) *Service { return &Service{table: table} }

// IngestText builds the aggregated collection from a raw CSV payload.
func (s *Service) IngestText(text string) ([]model.Row, error) {
	cands, err := ingest.ParseFeed(text)
	if err != nil {
		return nil, err
	}
	return Aggregate(cands, s.table.Resolve), nil
}

// IngestGrid builds the aggregated collection from a pre-split cell grid
// (file imports).
func (s *Service) IngestGrid(rows [][]string) ([]model.Row, error) {
	cands, err := ingest.ParseRows(rows)
	if err != nil {
		return nil, err
	}
	return Aggregate(cands, s.table.Resolve), nil
}

// Aggregate merges candidate entries into one row per
// (pole, site, facility, product, date) tuple. Duplicate-key lines sum, so
// the result is independent of input order. A quantity whose blood group was
// not recognized is attributed to no bucket and not to the total either;
// returned units accumulate regardless.
func Aggregate(cands []ingest.Candidate, resolve func(site string) string) []model.Row {
	agg := make(map[string]*model.Row, len(cands))
	keys := make([]string, 0, len(cands))
	for _, c := range cands {
		pole := resolve(c.Site)
		key := strings.Join([]string{pole, c.Site, c.Facility, c.Product, c.Date.Str}, "|")
		row, ok := agg[key]
		if !ok {
			row = &model.Row{
				Pole:        pole,
				Site:        c.Site,
				Facility:    c.Facility,
				ProductType: c.Product,
				Date:        c.Date.Str,
				Day:         c.Date.Day,
				MonthIdx:    c.Date.MonthIdx,
				Year:        c.Date.Year,
				Counts:      model.NewCounts(),
			}
			agg[key] = row
			keys = append(keys, key)
		}
		if c.Group != "" {
			row.Counts[c.Group] += c.Qty
			row.Total += c.Qty
		}
		row.Returned += c.Returned
	}

	sort.Strings(keys)
	out := make([]model.Row, 0, len(agg))
	for _, k := range keys {
		out = append(out, *agg[k])
	}
	return out
}

// Summarize re-groups aggregated rows by the dimensions keyOf selects,
// ordered by descending total with an alphabetical tie-break on the display
// name.
func Summarize(rows []model.Row, keyOf func(model.Row) model.GroupKey) []model.Summary {
	agg := make(map[model.GroupKey]*model.Summary)
	for _, r := range rows {
		k := keyOf(r)
		sum, ok := agg[k]
		if !ok {
			sum = &model.Summary{GroupKey: k, Counts: model.NewCounts()}
			agg[k] = sum
		}
		for g, n := range r.Counts {
			sum.Counts[g] += n
		}
		sum.Total += r.Total
		sum.Returned += r.Returned
	}

	out := make([]model.Summary, 0, len(agg))
	for _, v := range agg {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return displayName(out[i].GroupKey) < displayName(out[j].GroupKey)
	})
	return out
}

func displayName(k model.GroupKey) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{k.Pole, k.Site, k.ProductType} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

// Grouping key selectors for the synthesis views.
func BySite(r model.Row) model.GroupKey    { return model.GroupKey{Site: r.Site} }
func ByProduct(r model.Row) model.GroupKey { return model.GroupKey{ProductType: r.ProductType} }
func ByPole(r model.Row) model.GroupKey    { return model.GroupKey{Pole: r.Pole} }
func ByPoleProduct(r model.Row) model.GroupKey {
	return model.GroupKey{Pole: r.Pole, ProductType: r.ProductType}
}
func BySiteProduct(r model.Row) model.GroupKey {
	return model.GroupKey{Site: r.Site, ProductType: r.ProductType}
}

// ProductSynthesis lists per-site product detail rows, each site block
// followed by a subtotal row recomputed from that block. Site blocks are
// alphabetical; details inside a block sort by descending total.
func ProductSynthesis(rows []model.Row) []model.SynthesisRow {
	details := Summarize(rows, BySiteProduct)
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].Site != details[j].Site {
			return details[i].Site < details[j].Site
		}
		if details[i].Total != details[j].Total {
			return details[i].Total > details[j].Total
		}
		return details[i].ProductType < details[j].ProductType
	})

	out := make([]model.SynthesisRow, 0, len(details)+8)
	flush := func(site string, block []model.Summary) {
		if len(block) == 0 {
			return
		}
		sub := model.Summary{GroupKey: model.GroupKey{Site: site}, Counts: model.NewCounts()}
		for _, d := range block {
			out = append(out, model.SynthesisRow{Summary: d})
			for g, n := range d.Counts {
				sub.Counts[g] += n
			}
			sub.Total += d.Total
			sub.Returned += d.Returned
		}
		out = append(out, model.SynthesisRow{Summary: sub, Subtotal: true})
	}

	var block []model.Summary
	site := ""
	for _, d := range details {
		if d.Site != site {
			flush(site, block)
			block = block[:0]
			site = d.Site
		}
		block = append(block, d)
	}
	flush(site, block)
	return out
}
