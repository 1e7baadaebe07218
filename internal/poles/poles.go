// Package poles resolves free-text site names against the static reference
// table of regional poles (PRES) of the distribution network.
package poles

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"hemostats/internal/ingest"
)

// Unknown is the bucket for sites matching no descriptor. It stays visible in
// aggregated output so reference-table gaps can be spotted from the numbers.
const Unknown = "PRES INCONNUE"

//go:embed poles.yaml
var defaultTable []byte

type tableFile struct {
	Poles []struct {
		Name  string   `yaml:"name"`
		Sites []string `yaml:"sites"`
	} `yaml:"poles"`
}

// descriptor is one known site: an optional numeric code plus the significant
// place-name tokens left after stripping the administrative type prefix.
type descriptor struct {
	code   string
	tokens []string
}

type pole struct {
	name  string
	sites []descriptor
}

// Table is loaded once and never mutated. Iteration order is the
// disambiguation order: the first structural match wins.
type Table struct {
	poles []pole
}

// Administrative type prefixes carry no locality information.
var adminPrefixes = map[string]struct{}{
	"CNTS": {}, "CRTS": {}, "CDTS": {}, "CTS": {}, "PPS": {},
	"CHU": {}, "CHR": {}, "HG": {},
}

var digitRun = regexp.MustCompile(`\d+`)

// Load parses the embedded reference table.
func Load() (*Table, error) { return Parse(defaultTable) }

func Parse(raw []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("poles: %w", err)
	}
	if len(f.Poles) == 0 {
		return nil, fmt.Errorf("poles: empty reference table")
	}
	t := &Table{poles: make([]pole, 0, len(f.Poles))}
	for _, p := range f.Poles {
		pl := pole{name: p.Name, sites: make([]descriptor, 0, len(p.Sites))}
		for _, s := range p.Sites {
			pl.sites = append(pl.sites, parseDescriptor(s))
		}
		t.poles = append(t.poles, pl)
	}
	return t, nil
}

func parseDescriptor(s string) descriptor {
	var d descriptor
	for i, f := range strings.Fields(ingest.NormalizeLabel(s)) {
		switch {
		case isNumeric(f):
			if i == 0 {
				d.code = f
			}
		case len(f) < 3:
		default:
			if _, admin := adminPrefixes[f]; !admin {
				d.tokens = append(d.tokens, f)
			}
		}
	}
	return d
}

// Names lists the pole names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.poles))
	for i, p := range t.poles {
		out[i] = p.name
	}
	return out
}

// Resolve maps a site name to its pole, or Unknown. A descriptor matches on
// its numeric code (exactly, or modulo a single leading zero) or on any of
// its place tokens appearing inside the normalized input.
func (t *Table) Resolve(site string) string {
	normed := ingest.NormalizeLabel(site)
	if normed == "" {
		return Unknown
	}
	codes := digitRun.FindAllString(normed, -1)
	for _, p := range t.poles {
		for _, d := range p.sites {
			if d.code != "" {
				for _, c := range codes {
					if codeMatch(d.code, c) {
						return p.name
					}
				}
			}
			for _, tok := range d.tokens {
				if strings.Contains(normed, tok) {
					return p.name
				}
			}
		}
	}
	return Unknown
}

func codeMatch(want, got string) bool {
	return want == got || stripZero(want) == got || want == stripZero(got)
}

func stripZero(s string) string {
	if len(s) > 1 && s[0] == '0' {
		return s[1:]
	}
	return s
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
