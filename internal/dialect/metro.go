package dialect

import "github.com/insightdelivered/statement-engine/internal/config"

// Metro Bank statements:
//
//	Date | Money out | Money in | Balance
//
// Date format: DD/MM/YYYY. Amounts are left-aligned under their column
// labels and extraction is clean enough that no line preparation is
// needed beyond the shared unicode cleanup.
func newMetro(cfg config.Dialect) (Dialect, error) {
	return newMachine(cfg, nil)
}
