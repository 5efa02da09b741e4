package dialect

import (
	"strings"

	"github.com/insightdelivered/statement-engine/internal/config"
)

// Barclays statements come in two main shapes.
//
// Standard: Date | Description | Money out | Money in | Balance with
// DD/MM/YYYY or DD Mon YYYY dates, space-padded columns.
//
// Business: "→" column separators, short "D Mon" dates, and several
// entries under one printed date:
//
//	4 Dec Start Balance → 9,856.68
//	On-Line Banking Bill Payment to → 400.00 → 9,456.68
//	5 Dec → Direct Debit to Stripe → 58.80 → 9,397.88
//
// The prepare hook pads each "→" into spaces so both shapes flow
// through the positional machinery; dateless business entries are
// handled by the machine's split-on-amounts mode.
func newBarclays(cfg config.Dialect) (Dialect, error) {
	return newMachine(cfg, prepareBarclays)
}

func prepareBarclays(line string) string {
	if !strings.Contains(line, "→") {
		return line
	}
	return strings.ReplaceAll(line, "→", "   ")
}
