package extract

import (
	"regexp"
	"strings"
)

// DefaultMaxMarginDrift is how far a continuation line's first
// non-space character may deviate from the established left margin
// before it stops being treated as part of the same description.
// Tuned against sample documents.
const DefaultMaxMarginDrift = 3

// datePrefixPattern matches date tokens at the start of a line so they
// can be blanked out of description text.
var datePrefixPattern = regexp.MustCompile(
	`(?i)^\s{0,3}(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{1,2}[\s\-](?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*([\s\-]\d{2,4})?)`,
)

// boilerplatePatterns match footer and regulatory text that ends a
// description even without a blank line.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)financial services compensation`),
	regexp.MustCompile(`(?i)financial conduct authority`),
	regexp.MustCompile(`(?i)prudential regulation`),
	regexp.MustCompile(`(?i)registered in england`),
	regexp.MustCompile(`(?i)authorised by`),
	regexp.MustCompile(`(?i)page \d+ of \d+`),
	regexp.MustCompile(`(?i)continued on next page`),
}

// IsBoilerplate reports whether a line is footer/regulatory text.
func IsBoilerplate(line string) bool {
	for _, p := range boilerplatePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Accumulator stitches wrapped description lines into one string.
// Before a line is buffered its amount tokens and date prefix are
// replaced with padding of equal width, so offset arithmetic on the
// remaining text still holds.
type Accumulator struct {
	// MaxDrift overrides DefaultMaxMarginDrift when positive.
	MaxDrift int

	parts  []string
	margin int // established left margin; -1 until the first line
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{margin: -1}
}

// ShouldBreak reports whether the line ends the current description:
// blank lines, transaction-start lines, boilerplate, and lines whose
// indentation drifts too far from the established margin all break.
func (a *Accumulator) ShouldBreak(line string, startsTransaction bool) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	if startsTransaction {
		return true
	}
	if IsBoilerplate(line) {
		return true
	}
	if a.margin >= 0 {
		drift := leftMargin(line) - a.margin
		if drift < 0 {
			drift = -drift
		}
		maxDrift := a.MaxDrift
		if maxDrift <= 0 {
			maxDrift = DefaultMaxMarginDrift
		}
		if drift > maxDrift {
			return true
		}
	}
	return false
}

// Start buffers a transaction's opening line. The opening line carries
// the date and amount columns, so its text offset says nothing about
// where wrapped lines will sit; the left margin is established by the
// first continuation instead.
func (a *Accumulator) Start(line string) {
	a.push(line)
}

// Append buffers a continuation line. The first continuation fixes the
// left margin later continuations are measured against.
func (a *Accumulator) Append(line string) {
	if a.margin < 0 {
		if m := leftMargin(line); m >= 0 {
			a.margin = m
		}
	}
	a.push(line)
}

// push strips amounts and any date prefix with padding, then buffers
// the remaining text.
func (a *Accumulator) push(line string) {
	cleaned := StripAmounts(line)
	cleaned = stripDatePrefix(cleaned)
	text := strings.Join(strings.Fields(cleaned), " ")
	if text != "" {
		a.parts = append(a.parts, text)
	}
}

// String returns the accumulated description.
func (a *Accumulator) String() string {
	return strings.Join(a.parts, " ")
}

// Empty reports whether nothing has been accumulated.
func (a *Accumulator) Empty() bool {
	return len(a.parts) == 0
}

// Reset clears the buffer and the established margin.
func (a *Accumulator) Reset() {
	a.parts = nil
	a.margin = -1
}

// stripDatePrefix blanks a leading date token with spaces of the same
// width, keeping downstream offsets stable.
func stripDatePrefix(line string) string {
	loc := datePrefixPattern.FindStringIndex(line)
	if loc == nil {
		return line
	}
	b := []byte(line)
	for i := loc[0]; i < loc[1]; i++ {
		b[i] = ' '
	}
	return string(b)
}

// leftMargin is the offset of the first non-space character, or -1 for
// blank lines.
func leftMargin(line string) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return -1
}
