package ingest

import (
	"fmt"
	"regexp"
	"strconv"
)

// Date is a decomposed calendar date. MonthIdx is zero-based. An absent or
// unparseable date is the sentinel Day=0, MonthIdx=-1, Year=0: such rows are
// excluded from every time-scoped view but stay valid for unscoped totals.
type Date struct {
	Day      int
	MonthIdx int
	Year     int
	Str      string // canonical DD/MM/YYYY, empty when invalid
}

func NoDate() Date { return Date{MonthIdx: -1} }

func (d Date) Valid() bool { return d.MonthIdx >= 0 }

var dateSep = regexp.MustCompile(`[/\- ]+`)

// ParseDate accepts day-first (DD/MM/YYYY) and year-first (YYYY/MM/DD)
// orderings, split on "/", "-" or spaces. The ordering is detected by the
// first token's length. Two-digit years are not supported.
func ParseDate(s string) Date {
	s = NormalizeValue(s)
	if s == "" {
		return NoDate()
	}
	parts := dateSep.Split(s, -1)
	if len(parts) < 3 {
		return NoDate()
	}
	dayTok, monTok, yearTok := parts[0], parts[1], parts[2]
	if len(parts[0]) == 4 {
		yearTok, monTok, dayTok = parts[0], parts[1], parts[2]
	}
	if len(yearTok) != 4 {
		return NoDate()
	}
	day, err1 := strconv.Atoi(dayTok)
	mon, err2 := strconv.Atoi(monTok)
	year, err3 := strconv.Atoi(yearTok)
	if err1 != nil || err2 != nil || err3 != nil {
		return NoDate()
	}
	if day < 1 || day > 31 || mon < 1 || mon > 12 {
		return NoDate()
	}
	return Date{
		Day:      day,
		MonthIdx: mon - 1,
		Year:     year,
		Str:      fmt.Sprintf("%02d/%02d/%04d", day, mon, year),
	}
}
