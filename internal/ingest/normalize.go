package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BloodGroups are the eight canonical ABO/Rh labels, in match order. AB
// entries come before B so substring matching cannot misread "AB+" as "B+".
var BloodGroups = []string{"A+", "A-", "AB+", "AB-", "B+", "B-", "O+", "O-"}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

var headerJunk = regexp.MustCompile(`[^A-Z0-9_+]+`)

// NormalizeHeader folds a raw column name into the [A-Z0-9_+] space keyword
// matching operates on: uppercase, accents removed, everything else stripped.
// Idempotent, empty-safe.
func NormalizeHeader(s string) string {
	s = strings.ToUpper(stripAccents(strings.TrimSpace(s)))
	return headerJunk.ReplaceAllString(s, "")
}

// NormalizeValue trims surrounding whitespace and quoting from a cell.
func NormalizeValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

var labelJunk = regexp.MustCompile(`[^A-Z0-9]+`)

// NormalizeLabel prepares free text for place-name matching: uppercase,
// accents removed, punctuation collapsed to single spaces.
func NormalizeLabel(s string) string {
	s = strings.ToUpper(stripAccents(s))
	s = labelJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Longer spellings first so "POSITIF" is not half-rewritten by "POS".
var groupSuffixes = strings.NewReplacer(
	"POSITIF", "+", "NEGATIF", "-",
	"POS", "+", "NEG", "-",
	" ", "", "\t", "", "\u00A0", "",
)

// NormalizeGroup maps a raw blood-group cell onto its canonical label, or ""
// when the text matches none of the eight.
func NormalizeGroup(s string) string {
	g := groupSuffixes.Replace(strings.ToUpper(NormalizeValue(s)))
	if g == "" {
		return ""
	}
	for _, bg := range BloodGroups {
		if g == bg || strings.Contains(g, bg) {
			return bg
		}
	}
	return ""
}

var nonNumeric = regexp.MustCompile(`[^\d.\-]`)

// CoerceCount parses a unit count the way the source sheet writes numbers:
// "1 234,5" (including NBSP/NNBSP thousand separators) becomes 1234. The
// result is floored and clamped to zero; garbage parses to zero.
func CoerceCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	repl := strings.NewReplacer("\u00A0", "", "\u202F", "", " ", "", "\t", "", ",", ".")
	s = repl.Replace(s)
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	n := int(math.Floor(f))
	if n < 0 {
		return 0
	}
	return n
}
