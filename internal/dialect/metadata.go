package dialect

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-engine/internal/config"
	"github.com/insightdelivered/statement-engine/internal/extract"
	"github.com/insightdelivered/statement-engine/internal/models"
	"github.com/insightdelivered/statement-engine/internal/normalize"
)

// UK account metadata patterns.
var (
	accountNumberPattern = regexp.MustCompile(`\b(\d{8})\b`)
	sortCodePattern      = regexp.MustCompile(`\b(\d{2}-\d{2}-\d{2})\b`)

	fullDateSlash = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`)
	fullDateText  = regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4})\b`)
)

var holderLabels = []string{"Account holder", "Account name", "Mr ", "Mrs ", "Ms ", "Miss "}

var periodLayouts = []string{"02/01/2006", "02/01/06", "2 Jan 2006", "2 January 2006", "2 Jan 06"}

// ResolveMetadata pulls the account identity, currency, period and
// declared balances out of the full statement text.
func ResolveMetadata(doc models.Document, cfg config.Dialect) models.Statement {
	text := strings.Join(doc.Pages, "\n")

	s := models.Statement{
		Issuer:        cfg.Issuer,
		AccountNumber: accountNumberPattern.FindString(text),
		SortCode:      sortCodePattern.FindString(text),
		Holder:        holderNearLabel(text),
		Currency:      detectCurrency(text),
		Period:        ExtractPeriod(doc),
	}
	s.OpeningBalance = declaredBalance(text, []string{"opening balance", "start balance", "balance brought forward"})
	s.ClosingBalance = declaredBalance(text, []string{"closing balance", "end balance", "balance carried forward"})
	return s
}

// ExtractPeriod locates the statement period. It prefers an explicit
// "statement period" line with two dates; failing that it takes the
// earliest and latest fully dated lines in the document.
func ExtractPeriod(doc models.Document) models.Period {
	text := strings.Join(doc.Pages, "\n")

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "statement period") && !strings.Contains(lower, "period") {
			continue
		}
		if p, ok := periodFromLine(line); ok {
			return p
		}
	}

	// Fallback: bound the period by every dated token in the document.
	var min, max time.Time
	consider := func(token string) {
		d, ok := parseFullDate(token)
		if !ok {
			return
		}
		if min.IsZero() || d.Before(min) {
			min = d
		}
		if max.IsZero() || d.After(max) {
			max = d
		}
	}
	for _, token := range fullDateSlash.FindAllString(text, -1) {
		consider(token)
	}
	for _, token := range fullDateText.FindAllString(text, -1) {
		consider(token)
	}
	return models.Period{Start: min, End: max}
}

func periodFromLine(line string) (models.Period, bool) {
	for _, re := range []*regexp.Regexp{fullDateSlash, fullDateText} {
		tokens := re.FindAllString(line, 2)
		if len(tokens) != 2 {
			continue
		}
		start, ok1 := parseFullDate(tokens[0])
		end, ok2 := parseFullDate(tokens[1])
		if ok1 && ok2 && !end.Before(start) {
			return models.Period{Start: start, End: end}, true
		}
	}
	return models.Period{}, false
}

func parseFullDate(token string) (time.Time, bool) {
	token = normalize.CanonicalizeMonths(strings.TrimSpace(token))
	for _, layout := range periodLayouts {
		if d, err := time.Parse(layout, token); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func holderNearLabel(text string) string {
	for _, line := range strings.Split(text, "\n") {
		for _, label := range holderLabels {
			idx := strings.Index(line, label)
			if idx < 0 {
				continue
			}
			rest := strings.TrimSpace(line[idx+len(label):])
			rest = strings.TrimPrefix(rest, ":")
			rest = strings.TrimSpace(rest)
			if rest == "" {
				continue
			}
			// Runs of spaces separate the name from account columns.
			name := strings.TrimSpace(strings.Split(rest, "  ")[0])
			if strings.HasSuffix(label, " ") {
				name = strings.TrimSpace(label) + " " + name
			}
			return name
		}
	}
	return ""
}

func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "€"):
		return "EUR"
	case strings.Contains(text, "$"):
		return "USD"
	default:
		return "GBP"
	}
}

func declaredBalance(text string, phrases []string) decimal.NullDecimal {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, phrase := range phrases {
			if !strings.Contains(lower, phrase) {
				continue
			}
			tokens := extract.ExtractAmounts(line, 0, normalize.AmountStyle{})
			if len(tokens) > 0 {
				last := tokens[len(tokens)-1]
				return decimal.NullDecimal{Decimal: last.Value.Abs(), Valid: true}
			}
		}
	}
	return decimal.NullDecimal{}
}
