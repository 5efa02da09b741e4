package dialect

import (
	"strings"

	"github.com/insightdelivered/statement-engine/internal/config"
)

// HSBC statements:
//
//	Date | Payment type and details | Paid out | Paid in | Balance
//
// Date format: DD Mon YY (e.g. 15 Jan 24) or DD Mon YYYY. Amounts are
// right-aligned. Client-side extractions arrive tab-separated instead of
// space-padded, so the prepare hook expands tabs onto fixed column stops
// before the positional machinery runs.

// Column stops for tab-separated HSBC pages: date, payment type,
// details, paid out, paid in, balance. Five-part lines fold the type
// into the details cell.
var (
	hsbcStops6 = []int{0, 10, 14, 50, 66, 82}
	hsbcStops5 = []int{0, 14, 50, 66, 82}
)

func newHSBC(cfg config.Dialect) (Dialect, error) {
	return newMachine(cfg, prepareHSBC)
}

func prepareHSBC(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	parts := strings.Split(line, "\t")
	stops := hsbcStops5
	if len(parts) >= 6 {
		stops = hsbcStops6
	}

	var b strings.Builder
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		col := b.Len() + 2
		if i < len(stops) && stops[i] > b.Len() {
			col = stops[i]
		}
		for b.Len() < col {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return b.String()
}
