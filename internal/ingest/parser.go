package ingest

import (
	"fmt"
	"strings"
)

// Sentinels for absent optional fields, kept as the source sheet spells them.
const (
	SiteUnknown         = "SITE INCONNU"
	FacilityUnspecified = "NON SPECIFIE"
	ProductUnspecified  = "PRODUIT SANGUIN"
)

// Candidate is one parsed source line, before classification and
// aggregation.
type Candidate struct {
	Site     string
	Facility string
	Product  string
	Group    string // canonical blood group, or "" when unrecognized
	Qty      int
	Returned int
	Date     Date
}

// SplitLine splits one CSV line on commas, honoring double quotes. An
// unbalanced quote is tolerated: the remainder of the line becomes part of
// the last field.
func SplitLine(line string) []string {
	out := make([]string, 0, 8)
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			out = append(out, NormalizeValue(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	out = append(out, NormalizeValue(cur.String()))
	return out
}

// ParseFeed parses a whole CSV payload: header resolution once, then one
// candidate per usable data line. Per-line problems are silent skips; only a
// missing required column aborts the feed.
func ParseFeed(text string) ([]Candidate, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) {
		return nil, fmt.Errorf("%w: empty feed", ErrSchema)
	}

	header := SplitLine(lines[start])
	schema, err := ResolveSchema(header)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(lines)-start-1)
	for _, line := range lines[start+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, parseCells(SplitLine(line), schema, len(header))...)
	}
	return out, nil
}

// ParseRows runs the same pipeline over a pre-split cell grid (file imports).
func ParseRows(rows [][]string) ([]Candidate, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty feed", ErrSchema)
	}
	schema, err := ResolveSchema(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		out = append(out, parseCells(cells, schema, len(rows[0]))...)
	}
	return out, nil
}

// parseCells yields the candidates of one physical line: none when the line
// is malformed (fewer cells than half the header width) or carries neither
// distributed nor returned units, one for the label+quantity shape, one per
// non-zero count column for the per-group shape.
func parseCells(cells []string, s Schema, headerLen int) []Candidate {
	if len(cells)*2 < headerLen {
		return nil
	}
	at := func(idx int) string {
		if idx == NotFound || idx >= len(cells) {
			return ""
		}
		return NormalizeValue(cells[idx])
	}

	base := Candidate{
		Site:     at(s.Site),
		Facility: at(s.Facility),
		Product:  at(s.Product),
		Date:     ParseDate(at(s.Date)),
	}
	if base.Site == "" {
		base.Site = SiteUnknown
	}
	if base.Facility == "" {
		base.Facility = FacilityUnspecified
	}
	if base.Product == "" {
		base.Product = ProductUnspecified
	}
	returned := CoerceCount(at(s.Returned))

	if s.PerGroup() {
		var out []Candidate
		for _, g := range BloodGroups {
			idx, ok := s.Groups[g]
			if !ok {
				continue
			}
			if qty := CoerceCount(at(idx)); qty > 0 {
				c := base
				c.Group = g
				c.Qty = qty
				out = append(out, c)
			}
		}
		switch {
		case len(out) > 0:
			out[0].Returned = returned
		case returned > 0:
			c := base
			c.Returned = returned
			out = append(out, c)
		}
		return out
	}

	qty := CoerceCount(at(s.Qty))
	if qty == 0 && returned == 0 {
		return nil
	}
	base.Group = NormalizeGroup(at(s.Group))
	base.Qty = qty
	base.Returned = returned
	return []Candidate{base}
}
