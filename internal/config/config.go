// Package config defines per-dialect configuration bundles: column
// labels, date formats, skip-line patterns, transaction-type keyword
// groups, and the tuned constants each institution's layout needs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Boundary names two adjacent columns needing a classification
// threshold between them.
type Boundary struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Dialect is one institution's statement layout description.
//
// The numeric fields are calibration constants tuned against sample
// documents from that institution; they are preserved per dialect, not
// derived.
type Dialect struct {
	Name           string   `yaml:"name"`
	Issuer         string   `yaml:"issuer"`
	DetectKeywords []string `yaml:"detect_keywords"`

	HeaderLabels []string   `yaml:"header_labels"`
	Boundaries   []Boundary `yaml:"boundaries"`
	// Alignment of amounts within their columns: "left" or "right".
	// Configured, never inferred.
	Alignment string `yaml:"alignment"`

	DateFormats  []string `yaml:"date_formats"`
	DecimalComma bool     `yaml:"decimal_comma"`

	SkipPatterns []string `yaml:"skip_patterns"`

	// TypeKeywords maps a TransactionType name to the description
	// keywords that imply it.
	TypeKeywords map[string][]string `yaml:"type_keywords"`

	// InSignals / OutSignals are payment-type codes that always mean
	// money in or money out for this institution.
	InSignals  []string `yaml:"in_signals"`
	OutSignals []string `yaml:"out_signals"`

	// DebitKeywords drive the last-resort direction fallback.
	DebitKeywords []string `yaml:"debit_keywords"`

	// SplitOnAmounts treats a dateless line carrying column amounts as
	// a new transaction under the most recent date, instead of a
	// continuation. Needed for layouts that print several entries per
	// date (Barclays business).
	SplitOnAmounts bool `yaml:"split_on_amounts"`

	MinAmountColumn int     `yaml:"min_amount_column"`
	MaxMarginDrift  int     `yaml:"max_margin_drift"`
	Tolerance       float64 `yaml:"tolerance"`

	// Fallback thresholds used until a header is seen and when header
	// detection fails outright.
	DefaultOutThreshold int `yaml:"default_out_threshold"`
	DefaultInThreshold  int `yaml:"default_in_threshold"`
}

// File is the on-disk bundle shape: a list of dialect overrides.
type File struct {
	Dialects []Dialect `yaml:"dialects"`
}

// Load reads dialect bundles from a YAML file and overlays them onto
// the built-in defaults, keyed by name.
func Load(path string) (map[string]Dialect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dialect config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing dialect config: %w", err)
	}

	dialects := Defaults()
	for _, d := range f.Dialects {
		if d.Name == "" {
			return nil, fmt.Errorf("dialect config entry missing name")
		}
		dialects[d.Name] = d
	}
	return dialects, nil
}

// commonTypeKeywords covers wording shared by every UK institution in
// the sample set. Dialects may override the whole map.
func commonTypeKeywords() map[string][]string {
	return map[string][]string{
		"DIRECT_DEBIT":    {"direct debit", "dd "},
		"STANDING_ORDER":  {"standing order", "s/o", "so "},
		"CARD_PAYMENT":    {"card payment", "pos ", "debit card", "contactless"},
		"CASH_WITHDRAWAL": {"cash withdrawal", "atm ", "cashpoint"},
		"TRANSFER":        {"transfer", "faster payment"},
		"BANK_CREDIT":     {"bank credit", "bgc", "credit from", "direct credit", "salary"},
		"CHEQUE":          {"cheque", "chq"},
		"FEE":             {"fee", "charge", "commission"},
		"INTEREST":        {"interest"},
	}
}

var commonDebitKeywords = []string{
	"card payment", "direct debit", "payment to", "withdrawal",
	"transfer to", "standing order", "dd ", "pos ", "atm ",
	"purchase", "fee", "charge",
}

var commonSkipPatterns = []string{
	`(?i)total paid (in|out)`,
	`(?i)total (payments|receipts)`,
	`(?i)statement period`,
	`(?i)^page \d+`,
	`(?i)continued`,
	`(?i)at a glance`,
	`(?i)your deposit is eligible`,
	`(?i)compensation scheme`,
	`(?i)issued on`,
	`(?i)swiftbic`,
	`(?i)iban gb`,
	`(?i)anything wrong`,
}

// Defaults returns the built-in dialect bundles.
func Defaults() map[string]Dialect {
	metro := Dialect{
		Name:           "metro",
		Issuer:         "Metro Bank",
		DetectKeywords: []string{"Metro Bank", "METRO BANK", "metrobankonline"},
		HeaderLabels:   []string{"Date", "Money out", "Money in", "Balance"},
		Boundaries: []Boundary{
			{Left: "Money out", Right: "Money in"},
			{Left: "Money in", Right: "Balance"},
		},
		Alignment:       "left",
		DateFormats:     []string{"02/01/2006", "02/01/06", "2 Jan 2006", "2 Jan"},
		SkipPatterns:    commonSkipPatterns,
		TypeKeywords:    commonTypeKeywords(),
		DebitKeywords:   commonDebitKeywords,
		MinAmountColumn: 45,
		MaxMarginDrift:  3,
		Tolerance:       0.015,
	}

	hsbc := Dialect{
		Name:           "hsbc",
		Issuer:         "HSBC",
		DetectKeywords: []string{"HSBC", "hsbc.co.uk", "HSBC UK Bank"},
		HeaderLabels:   []string{"Date", "Paid out", "Paid in", "Balance"},
		Boundaries: []Boundary{
			{Left: "Paid out", Right: "Paid in"},
			{Left: "Paid in", Right: "Balance"},
		},
		Alignment:   "right",
		DateFormats: []string{"2 Jan 06", "2 Jan 2006", "2-Jan-06", "02/01/2006", "2 Jan"},
		SkipPatterns: append([]string{
			`(?i)payment type and details`,
		}, commonSkipPatterns...),
		TypeKeywords:  commonTypeKeywords(),
		OutSignals:    []string{"DD", "SO", "ATM", "VIS", "DR", ")))"},
		InSignals:     []string{"CR", "BP", "TFR IN"},
		DebitKeywords: commonDebitKeywords,
		// HSBC prints narrow detail columns; amounts can start around
		// column 48 on compact pages.
		MinAmountColumn: 48,
		MaxMarginDrift:  3,
		Tolerance:       0.015,
		// Match the tab-stop expansion in the hsbc dialect so tab
		// separated pages classify before any header is seen.
		DefaultOutThreshold: 65,
		DefaultInThreshold:  81,
	}

	barclays := Dialect{
		Name:           "barclays",
		Issuer:         "Barclays",
		DetectKeywords: []string{"Barclays", "BARCLAYS", "barclays.co.uk"},
		HeaderLabels:   []string{"Date", "Money out", "Money in", "Balance"},
		Boundaries: []Boundary{
			{Left: "Money out", Right: "Money in"},
			{Left: "Money in", Right: "Balance"},
		},
		Alignment:   "left",
		DateFormats: []string{"02/01/2006", "2 Jan 2006", "2 Jan 06", "2 Jan"},
		SkipPatterns: append([]string{
			`(?i)exchange rate`,
			`(?i)non-sterling transaction fee`,
			`(?i)final gbp amount`,
			`(?i)barclays bank`,
			`(?i)registered in`,
			`(?i)authorised by`,
			`(?i)financial conduct`,
			`(?i)prudential regulation`,
		}, commonSkipPatterns...),
		TypeKeywords:    commonTypeKeywords(),
		DebitKeywords:   commonDebitKeywords,
		SplitOnAmounts:  true,
		MinAmountColumn: 50,
		MaxMarginDrift:  3,
		Tolerance:       0.015,
	}

	generic := Dialect{
		Name:         "generic",
		Issuer:       "",
		HeaderLabels: []string{"Date", "Money out", "Money in", "Balance"},
		Boundaries: []Boundary{
			{Left: "Money out", Right: "Money in"},
			{Left: "Money in", Right: "Balance"},
		},
		Alignment:       "left",
		DateFormats:     []string{"02/01/2006", "2 Jan 2006", "2 Jan 06", "2-Jan-06", "2 Jan"},
		SkipPatterns:    commonSkipPatterns,
		TypeKeywords:    commonTypeKeywords(),
		DebitKeywords:   commonDebitKeywords,
		MinAmountColumn: 50,
		MaxMarginDrift:  3,
		Tolerance:       0.015,
	}

	return map[string]Dialect{
		metro.Name:    metro,
		hsbc.Name:     hsbc,
		barclays.Name: barclays,
		generic.Name:  generic,
	}
}
