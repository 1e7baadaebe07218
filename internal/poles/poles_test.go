package poles

import (
	"strings"
	"testing"

	"hemostats/internal/ingest"
)

func loadTable(t *testing.T) *Table {
	t.Helper()
	table, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return table
}

func TestResolve(t *testing.T) {
	table := loadTable(t)
	cases := []struct {
		site, want string
	}{
		{"01 CRTS TREICHVILLE", "PRES ABIDJAN"}, // type prefix differs from the table entry
		{"01 CNTS ABIDJAN TREICHVILLE", "PRES ABIDJAN"},
		{"CDTS Cocody", "PRES ABIDJAN"},
		{"20 CRTS BOUAKE", "PRES BOUAKE"},
		{"CRTS BOUAKÉ", "PRES BOUAKE"}, // accents fold away
		{"1 CNTS TREICHVILLE", "PRES ABIDJAN"}, // leading zero dropped
		{"site 34", "PRES DALOA"}, // code alone is enough
		{"CRTS SAN PEDRO", "PRES SAN PEDRO"},
		{"PPS Tabou", "PRES SAN PEDRO"},
		{"70 CRTS ABENGOUROU", "PRES ABENGOUROU"},
		{"ZZZ UNKNOWN DEPOT", Unknown},
		{"", Unknown},
	}
	for _, c := range cases {
		if got := table.Resolve(c.site); got != c.want {
			t.Errorf("Resolve(%q) = %q, want %q", c.site, got, c.want)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	table := loadTable(t)
	first := table.Resolve("61 CDTS DUEKOUE")
	for i := 0; i < 100; i++ {
		if got := table.Resolve("61 CDTS DUEKOUE"); got != first {
			t.Fatalf("iteration %d: %q != %q", i, got, first)
		}
	}
	if first != "PRES MAN" {
		t.Fatalf("Resolve(61 CDTS DUEKOUE) = %q", first)
	}
}

func TestNames(t *testing.T) {
	table := loadTable(t)
	names := table.Names()
	if len(names) != 7 {
		t.Fatalf("got %d poles, want 7: %v", len(names), names)
	}
	if names[0] != "PRES ABIDJAN" {
		t.Errorf("first pole = %q", names[0])
	}
}

func TestParseRejectsEmptyTable(t *testing.T) {
	if _, err := Parse([]byte("poles: []\n")); err == nil {
		t.Fatal("expected an error for an empty table")
	}
	if _, err := Parse([]byte(":\tnot yaml")); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}

// The reference table must be unambiguous: a site code appears under exactly
// one pole, and no place token of one pole is contained in a place token of
// another (same-pole containment is harmless, the resolution lands on the
// same name either way).
func TestReferenceTableNoConflicts(t *testing.T) {
	table := loadTable(t)

	type entry struct {
		pole  string
		value string
	}
	var codes []entry
	var tokens []entry
	for _, p := range table.poles {
		for _, d := range p.sites {
			if d.code != "" {
				codes = append(codes, entry{p.name, d.code})
			}
			for _, tok := range d.tokens {
				tokens = append(tokens, entry{p.name, tok})
			}
		}
	}

	seen := map[string]string{}
	for _, c := range codes {
		if prev, ok := seen[c.value]; ok && prev != c.pole {
			t.Errorf("code %q appears under both %q and %q", c.value, prev, c.pole)
		}
		seen[c.value] = c.pole
	}

	for _, a := range tokens {
		for _, b := range tokens {
			if a.pole == b.pole || a.value == b.value {
				continue
			}
			if strings.Contains(a.value, b.value) {
				t.Errorf("token %q (%s) contains token %q (%s)", a.value, a.pole, b.value, b.pole)
			}
		}
	}
}

func TestDescriptorTokensExcludeAdminPrefixes(t *testing.T) {
	d := parseDescriptor("01 CNTS ABIDJAN TREICHVILLE")
	if d.code != "01" {
		t.Fatalf("code = %q", d.code)
	}
	for _, tok := range d.tokens {
		if tok == "CNTS" {
			t.Fatal("admin prefix kept as a place token")
		}
	}
	if got := ingest.NormalizeLabel("Treichville"); !contains(d.tokens, got) {
		t.Fatalf("tokens %v missing %q", d.tokens, got)
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
