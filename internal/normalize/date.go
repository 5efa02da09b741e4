package normalize

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/statement-engine/internal/models"
)

// ErrUnparseableDate is returned when a token matches none of the
// dialect's date formats.
var ErrUnparseableDate = errors.New("unparseable date")

// monthAliases maps localized and abbreviated month names to the English
// canonical form the layout strings use. Keys are lower-case.
var monthAliases = map[string]string{
	// French
	"janv": "Jan", "janvier": "Jan",
	"févr": "Feb", "fevr": "Feb", "février": "Feb", "fevrier": "Feb",
	"mars": "Mar",
	"avr": "Apr", "avril": "Apr",
	"mai":  "May",
	"juin": "Jun",
	"juil": "Jul", "juillet": "Jul",
	"août": "Aug", "aout": "Aug",
	"septembre": "Sep",
	"octobre":   "Oct",
	"novembre":  "Nov",
	"décembre":  "Dec", "decembre": "Dec", "déc": "Dec",
	// Spanish
	"ene": "Jan", "enero": "Jan",
	"febrero": "Feb",
	"marzo":   "Mar",
	"abr":     "Apr", "abril": "Apr",
	"mayo":  "May",
	"junio": "Jun",
	"julio": "Jul",
	"ago":   "Aug", "agosto": "Aug",
	"septiembre": "Sep",
	"octubre":    "Oct",
	"noviembre":  "Nov",
	"dic":        "Dec", "diciembre": "Dec",
	// German
	"januar": "Jan", "jänner": "Jan",
	"februar": "Feb",
	"märz":    "Mar", "marz": "Mar", "mrz": "Mar",
	"dez": "Dec", "dezember": "Dec",
	"okt": "Oct", "oktober": "Oct",
	// English long forms (layouts use Jan/January; normalize odd casing)
	"sept": "Sep",
}

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// CanonicalizeMonths rewrites localized month names and ordinal suffixes
// so that the token parses with Go's English month layouts.
func CanonicalizeMonths(s string) string {
	s = ordinalSuffix.ReplaceAllString(s, "$1")

	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '/' || r == '.'
	})
	for _, w := range words {
		if canonical, ok := monthAliases[strings.ToLower(w)]; ok {
			s = strings.Replace(s, w, canonical, 1)
		}
	}
	return s
}

// yearless reports whether a layout string carries no year component.
func yearless(layout string) bool {
	return !strings.Contains(layout, "2006") && !strings.Contains(layout, "06")
}

// ResolveDate parses a date token against the dialect's format list and
// resolves it to a calendar date inside (or nearest to) the statement
// period.
//
// Year-less tokens are tried with the period's start year and end year;
// whichever candidate lands inside the period wins. When neither does
// (statements spanning a year boundary), a cross-year heuristic applies:
// a period starting in January or February combined with an October-
// December month means the previous year; otherwise the candidate
// numerically closer to the nearer period boundary wins. Feb 29 retries
// the alternate candidate year when the first fails to construct a valid
// date.
func ResolveDate(token string, layouts []string, period models.Period) (time.Time, error) {
	token = strings.TrimSpace(CanonicalizeMonths(token))
	if token == "" {
		return time.Time{}, ErrUnparseableDate
	}

	for _, layout := range layouts {
		if yearless(layout) {
			if d, err := resolveYearless(token, layout, period); err == nil {
				return d, nil
			}
			continue
		}
		if d, err := time.Parse(layout, token); err == nil {
			return d, nil
		}
	}
	return time.Time{}, ErrUnparseableDate
}

func resolveYearless(token, layout string, period models.Period) (time.Time, error) {
	parsed, err := time.Parse(layout, token)
	if err != nil {
		return time.Time{}, err
	}
	day, month := parsed.Day(), parsed.Month()

	startYear := period.Start.Year()
	endYear := period.End.Year()

	candidates := make([]time.Time, 0, 2)
	for _, year := range []int{startYear, endYear} {
		if len(candidates) == 1 && candidates[0].Year() == year {
			continue // same year on both ends
		}
		// Leap-day handling: time.Date normalizes Feb 29 to Mar 1 in
		// non-leap years, which silently shifts the date. Reject the
		// candidate instead so the alternate year gets tried.
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if d.Month() != month || d.Day() != day {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return time.Time{}, ErrUnparseableDate
	}

	for _, d := range candidates {
		if period.Contains(d) {
			return d, nil
		}
	}

	// Neither candidate lands inside the period.
	if startMonth := period.Start.Month(); (startMonth == time.January || startMonth == time.February) &&
		month >= time.October && month <= time.December {
		d := time.Date(startYear-1, month, day, 0, 0, 0, 0, time.UTC)
		if d.Month() == month && d.Day() == day {
			return d, nil
		}
	}

	best := candidates[0]
	bestDist := boundaryDistance(best, period)
	for _, d := range candidates[1:] {
		if dist := boundaryDistance(d, period); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best, nil
}

// boundaryDistance is the day count from d to the nearer period edge.
func boundaryDistance(d time.Time, period models.Period) int {
	toStart := absDays(d.Sub(period.Start))
	toEnd := absDays(d.Sub(period.End))
	if toStart < toEnd {
		return toStart
	}
	return toEnd
}

func absDays(d time.Duration) int {
	days := int(d.Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
