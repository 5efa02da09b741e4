package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is the date range a statement covers. It is used to resolve
// year-less dates in transaction lines.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls within the period, inclusive.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// SubAccountSummary describes one sub-account section of a combined
// statement (some business statements roll several accounts into one
// document).
type SubAccountSummary struct {
	Name           string
	AccountNumber  string
	OpeningBalance decimal.NullDecimal
	ClosingBalance decimal.NullDecimal
}

// Statement holds the header metadata of one statement document. It is
// built once from the document header and is read-only input to date
// inference and whole-statement reconciliation.
type Statement struct {
	Issuer         string
	AccountNumber  string
	Holder         string
	SortCode       string
	Currency       string
	Period         Period
	OpeningBalance decimal.NullDecimal
	ClosingBalance decimal.NullDecimal
	SubAccounts    []SubAccountSummary
}

// Word is a positioned token from a coordinate-aware extractor.
type Word struct {
	X0     float64 `json:"x0"`
	Top    float64 `json:"top"`
	X1     float64 `json:"x1"`
	Bottom float64 `json:"bottom"`
	Text   string  `json:"text"`
}

// Document is the engine's input: text pages plus, for coordinate-aware
// dialects, per-page word tokens. Both come from an upstream extractor.
type Document struct {
	Pages []string
	Words [][]Word // per page; may be nil when only text is available

	// ExtractionConfidence is the upstream extractor's self-assessment,
	// 0.0-1.0. Carried through for reporting only.
	ExtractionConfidence float64
}

// Lines returns the document's text split into lines, with the 1-based
// page number for each line.
func (d Document) Lines() ([]string, []int) {
	var lines []string
	var pages []int
	for i, page := range d.Pages {
		start := 0
		for j := 0; j <= len(page); j++ {
			if j == len(page) || page[j] == '\n' {
				lines = append(lines, page[start:j])
				pages = append(pages, i+1)
				start = j + 1
			}
		}
	}
	return lines, pages
}

// ValidationResult reports the outcome of one reconciliation check.
type ValidationResult struct {
	OK         bool
	Message    string
	Index      int // offending transaction index, -1 if not applicable
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal
}

// ParseResult is what the engine hands to export and reporting layers.
type ParseResult struct {
	Statement         Statement     `json:"statement"`
	Transactions      []Transaction `json:"transactions"`
	Warnings          []string      `json:"warnings"`
	BalanceReconciled bool          `json:"balance_reconciled"`
}
