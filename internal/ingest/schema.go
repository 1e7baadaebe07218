package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema marks a feed whose header row lacks a required column. Zero rows
// with this error is a broken feed; zero rows without it is a legitimately
// empty one.
var ErrSchema = errors.New("schema error")

// NotFound is the column index of an absent optional field.
const NotFound = -1

// Schema maps each semantic field to its zero-based column index. A feed
// comes in one of two shapes: a label column (SA_GROUPE) paired with a single
// quantity column (NOMBRE), or one count column per canonical blood group
// with no quantity column at all. In the second shape Groups holds the
// per-group column indexes and Group/Qty stay NotFound.
type Schema struct {
	Site     int
	Facility int
	Product  int
	Group    int
	Qty      int
	Returned int
	Date     int
	Groups   map[string]int
}

// PerGroup reports whether the feed carries one count column per blood group.
func (s Schema) PerGroup() bool { return len(s.Groups) > 0 }

// ResolveSchema locates the semantic columns by keyword match against the
// normalized headers. A header matches on equality or substring; when several
// headers match one field the leftmost wins. Keyword order within a field is
// the documented precedence (more specific spellings first). When the
// label+quantity pair is absent the resolver falls back to per-group count
// columns, matched by exact header equality against the canonical labels. A
// feed with neither shape is broken.
func ResolveSchema(header []string) (Schema, error) {
	normed := make([]string, len(header))
	for i, h := range header {
		normed[i] = NormalizeHeader(h)
	}

	find := func(keywords ...string) int {
		for i, h := range normed {
			if h == "" {
				continue
			}
			for _, k := range keywords {
				if h == k || strings.Contains(h, k) {
					return i
				}
			}
		}
		return NotFound
	}

	s := Schema{
		Site:     find("SI_NOM", "SITE"),
		Facility: find("FS_NOM", "STRUCTURE", "ETABLISSEMENT"),
		Product:  find("NA_LIBELLE", "PRODUIT", "TYPE"),
		Group:    find("SA_GROUPE", "GROUPE"),
		Qty:      find("NOMBRE", "QUANTITE", "QTE"),
		Returned: find("BD_RENDU", "RENDU"),
		Date:     find("DT_DISTRIBUTION", "DATE", "JOUR"),
	}

	if s.Qty != NotFound && s.Group != NotFound {
		return s, nil
	}

	if groups := groupColumns(header); len(groups) > 0 {
		s.Group, s.Qty = NotFound, NotFound
		s.Groups = groups
		return s, nil
	}

	var missing []string
	if s.Qty == NotFound {
		missing = append(missing, "NOMBRE")
	}
	if s.Group == NotFound {
		missing = append(missing, "SA_GROUPE")
	}
	return s, fmt.Errorf("%w: missing required column(s): %s", ErrSchema, strings.Join(missing, ", "))
}

// groupColumns finds count columns named exactly after a canonical blood
// group ("A+", "O-", ...). Equality only: a header merely containing a label
// is some other column.
func groupColumns(header []string) map[string]int {
	var out map[string]int
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(h))
		for _, bg := range BloodGroups {
			if h == bg {
				if out == nil {
					out = make(map[string]int, len(BloodGroups))
				}
				if _, dup := out[bg]; !dup {
					out[bg] = i
				}
				break
			}
		}
	}
	return out
}
