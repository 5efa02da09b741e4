package dialect

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-engine/internal/config"
	"github.com/insightdelivered/statement-engine/internal/extract"
	"github.com/insightdelivered/statement-engine/internal/layout"
	"github.com/insightdelivered/statement-engine/internal/models"
	"github.com/insightdelivered/statement-engine/internal/normalize"
)

// Leading-date patterns. The date must sit within the first few columns
// of the line; dates elsewhere are description text.
var (
	dateStartSlash = regexp.MustCompile(`^\s{0,3}(\d{1,2}/\d{1,2}/\d{2,4})`)
	dateStartText  = regexp.MustCompile(`(?i)^\s{0,3}(\d{1,2}(?:st|nd|rd|th)?[\s\-](?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-zéû]*(?:[\s\-]\d{2,4})?)`)
)

// leadingDateToken returns the date token at the start of a line, or "".
func leadingDateToken(line string) string {
	if m := dateStartSlash.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := dateStartText.FindStringSubmatch(line); m != nil {
		token := m[1]
		// "1 May 2021" is a date; "1 Maypole Lane" is not. The text
		// pattern's trailing [a-z]* absorbs month suffixes like
		// "January", so reject words that are not month names.
		if !validMonthWord(token) {
			return ""
		}
		return token
	}
	return ""
}

var monthWords = map[string]bool{
	"jan": true, "january": true, "feb": true, "february": true,
	"mar": true, "march": true, "apr": true, "april": true, "may": true,
	"jun": true, "june": true, "jul": true, "july": true,
	"aug": true, "august": true, "sep": true, "sept": true, "september": true,
	"oct": true, "october": true, "nov": true, "november": true,
	"dec": true, "december": true, "décembre": true, "février": true,
}

func validMonthWord(token string) bool {
	fields := strings.FieldsFunc(token, func(r rune) bool { return r == ' ' || r == '-' })
	if len(fields) < 2 {
		return false
	}
	return monthWords[strings.ToLower(fields[1])]
}

// ParserState is the mutable parse position threaded through the fold
// over the line stream. It is reset at brought-forward markers.
type ParserState struct {
	Date    time.Time
	HasDate bool
	Signal  extract.Signal

	// LastDate survives clearPending: layouts that print several
	// entries per date reuse it for dateless entries.
	LastDate time.Time

	Desc   *extract.Accumulator
	Tokens []extract.AmountToken
	Raw    []string
	Page   int

	PrevBalance decimal.NullDecimal
	Layout      *layout.ColumnLayout
}

func newParserState() ParserState {
	return ParserState{Desc: extract.NewAccumulator()}
}

// clearPending drops the in-flight transaction but keeps the running
// balance and layout.
func (st *ParserState) clearPending() {
	st.HasDate = false
	st.Date = time.Time{}
	st.Signal = extract.SignalNone
	st.Desc.Reset()
	st.Tokens = nil
	st.Raw = nil
	st.Page = 0
}

// emitReady reports whether the pending transaction has everything it
// needs: a resolved date and at least one retained amount.
func (st *ParserState) emitReady() bool {
	return st.HasDate && len(st.Tokens) > 0
}

// typeOrder fixes the precedence of transaction-type keyword groups so
// tagging is deterministic when several groups match.
var typeOrder = []models.TransactionType{
	models.TypeDirectDebit,
	models.TypeStandingOrder,
	models.TypeCardPayment,
	models.TypeCashWithdrawal,
	models.TypeBankCredit,
	models.TypeCheque,
	models.TypeInterest,
	models.TypeFee,
	models.TypeTransfer,
	models.TypeOther,
}

// machine is the shared dialect skeleton: configuration plus an
// optional per-dialect line preparation hook. It implements Dialect and
// backs the generic dialect directly.
type machine struct {
	cfg       config.Dialect
	skip      []*regexp.Regexp
	pairs     []layout.BoundaryPair
	alignment layout.Alignment
	style     normalize.AmountStyle
	tolerance decimal.Decimal

	// prepare normalizes one raw line before processing (tab expansion,
	// arrow separators, unicode cleanup). May be nil.
	prepare func(string) string
}

func newMachine(cfg config.Dialect, prepare func(string) string) (*machine, error) {
	m := &machine{
		cfg:       cfg,
		alignment: layout.AlignLeft,
		style:     normalize.AmountStyle{DecimalComma: cfg.DecimalComma},
		tolerance: decimal.NewFromFloat(cfg.Tolerance),
		prepare:   prepare,
	}
	if strings.EqualFold(cfg.Alignment, "right") {
		m.alignment = layout.AlignRight
	}
	for _, b := range cfg.Boundaries {
		m.pairs = append(m.pairs, layout.BoundaryPair{Left: b.Left, Right: b.Right})
	}
	for _, p := range cfg.SkipPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad skip pattern %q: %w", p, err)
		}
		m.skip = append(m.skip, re)
	}
	return m, nil
}

func (m *machine) Name() string   { return m.cfg.Name }
func (m *machine) Issuer() string { return m.cfg.Issuer }

// Parse folds the parser state over every line of the document. The
// pre-scan runs first so that transactions printed before the first
// visible header still classify against real thresholds.
func (m *machine) Parse(doc models.Document, period models.Period) ([]models.Transaction, []string, error) {
	lines, pages := m.documentLines(doc)

	st := newParserState()
	st.Desc.MaxDrift = m.cfg.MaxMarginDrift
	prepared := make([]string, len(lines))
	for i, line := range lines {
		prepared[i] = m.prepareLine(line)
	}
	st.Layout = layout.Prescan(prepared, m.cfg.HeaderLabels, m.pairs, m.alignment)

	var out []models.Transaction
	var warnings []string

	for i, line := range prepared {
		m.step(&st, &out, &warnings, line, lines[i], pages[i], period)
	}
	m.finish(&st, &out, &warnings)

	return out, warnings, nil
}

func (m *machine) prepareLine(line string) string {
	line = strings.ReplaceAll(line, "​", "")
	line = strings.ReplaceAll(line, " ", " ")
	if m.prepare != nil {
		line = m.prepare(line)
	}
	return line
}

// step processes one line. Transition priority is deliberate: a line
// that starts a new transaction must be recognized before any check for
// completing the pending one, or the first line of a new entry gets
// glued onto the tail of the previous entry.
func (m *machine) step(st *ParserState, out *[]models.Transaction, warnings *[]string, line, raw string, page int, period models.Period) {
	trimmed := strings.TrimSpace(line)

	// A fresh header replaces the active thresholds outright; layouts
	// are per-page state, never merged.
	if l, err := layout.DetectColumns(line, m.cfg.HeaderLabels, m.pairs, m.alignment); err == nil {
		m.finish(st, out, warnings)
		st.Layout = l
		return
	}

	if trimmed == "" {
		m.finish(st, out, warnings)
		return
	}

	if models.IsMarkerText(trimmed) {
		m.finish(st, out, warnings)
		m.emitMarker(st, out, trimmed, raw, page, period)
		return
	}

	if m.isSkipLine(trimmed) {
		return
	}

	if token := leadingDateToken(line); token != "" {
		date, err := normalize.ResolveDate(token, m.cfg.DateFormats, period)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("page %d: unparseable date %q, line skipped", page, token))
			return
		}
		m.finish(st, out, warnings)
		st.HasDate = true
		st.Date = date
		st.LastDate = date
		st.Page = page
		m.consumeLine(st, line, raw, true)
		return
	}

	if m.cfg.SplitOnAmounts && !st.LastDate.IsZero() {
		if tokens := extract.ExtractAmounts(line, m.amountCutoff(line), m.style); len(tokens) > 0 {
			m.finish(st, out, warnings)
			st.HasDate = true
			st.Date = st.LastDate
			st.Page = page
			m.consumeLine(st, line, raw, true)
			return
		}
	}

	// No date: the line either continues the pending transaction or is
	// noise between entries.
	if !st.HasDate {
		return
	}
	if st.Desc.ShouldBreak(line, false) {
		m.finish(st, out, warnings)
		return
	}
	m.consumeLine(st, line, raw, false)
}

// consumeLine folds a transaction-start or continuation line into the
// pending state: signal codes, amount tokens, and description text.
func (m *machine) consumeLine(st *ParserState, line, raw string, start bool) {
	if sig := m.signalFor(line); sig != extract.SignalNone && st.Signal == extract.SignalNone {
		st.Signal = sig
	}
	tokens := extract.ExtractAmounts(line, m.amountCutoff(line), m.style)
	st.Tokens = append(st.Tokens, tokens...)
	if start {
		st.Desc.Start(line)
	} else {
		st.Desc.Append(line)
	}
	st.Raw = append(st.Raw, raw)
}

// amountCutoff is the horizontal cutoff below which numbers are treated
// as description text. Narrow lines (compact extractions) use half the
// line width instead of the configured column. Tuned per dialect.
func (m *machine) amountCutoff(line string) int {
	cutoff := m.cfg.MinAmountColumn
	if cutoff <= 0 {
		cutoff = extract.DefaultMinAmountColumn
	}
	if half := len(line) / 2; half < cutoff {
		cutoff = half
	}
	return cutoff
}

func (m *machine) isSkipLine(line string) bool {
	for _, re := range m.skip {
		if re.MatchString(line) {
			return true
		}
	}
	return extract.IsBoilerplate(line)
}

func (m *machine) signalFor(line string) extract.Signal {
	fields := strings.Fields(line)
	for _, f := range fields {
		for _, code := range m.cfg.OutSignals {
			if f == code {
				return extract.SignalOut
			}
		}
		for _, code := range m.cfg.InSignals {
			if f == code {
				return extract.SignalIn
			}
		}
	}
	return extract.SignalNone
}

// emitMarker produces the synthetic zero-amount transaction for a
// brought-forward or period-break line and resets the pending state.
func (m *machine) emitMarker(st *ParserState, out *[]models.Transaction, line, raw string, page int, period models.Period) {
	tokens := extract.ExtractAmounts(line, 0, m.style)
	if len(tokens) == 0 {
		// A marker with no amount still resets state.
		st.clearPending()
		st.PrevBalance = decimal.NullDecimal{}
		return
	}
	c := extract.Classify(tokens, extract.Context{BroughtForward: true})

	txn := models.Transaction{
		Description: strings.Join(strings.Fields(extract.StripAmounts(line)), " "),
		Balance:     c.Balance,
		RawText:     raw,
		PageNumber:  page,
	}
	if token := leadingDateToken(line); token != "" {
		if date, err := normalize.ResolveDate(token, m.cfg.DateFormats, period); err == nil {
			txn.Date = date
			st.LastDate = date
		}
	}

	*out = append(*out, txn)
	st.clearPending()
	st.PrevBalance = c.Balance
}

// finish emits the pending transaction if it is ready and always clears
// the pending state.
func (m *machine) finish(st *ParserState, out *[]models.Transaction, warnings *[]string) {
	defer st.clearPending()
	if !st.emitReady() {
		if st.HasDate && st.Desc != nil && !st.Desc.Empty() {
			*warnings = append(*warnings, fmt.Sprintf(
				"page %d: dated entry %q has no amounts, discarded", st.Page, st.Desc.String()))
		}
		return
	}

	desc := st.Desc.String()
	ctx := extract.Context{
		Signal:      st.Signal,
		PrevBalance: st.PrevBalance,
		Tolerance:   m.tolerance,
		DebitHint:   m.debitHint(desc),
	}
	if t, ok := st.Layout.Threshold(m.outLabel()); ok {
		ctx.OutThreshold = t
	} else {
		ctx.OutThreshold = m.cfg.DefaultOutThreshold
	}
	if t, ok := st.Layout.Threshold(m.inLabel()); ok {
		ctx.InThreshold = t
	} else {
		ctx.InThreshold = m.cfg.DefaultInThreshold
	}

	c := extract.Classify(st.Tokens, ctx)
	*warnings = append(*warnings, c.Warnings...)

	txn := models.Transaction{
		Date:        st.Date,
		Description: desc,
		MoneyIn:     c.MoneyIn,
		MoneyOut:    c.MoneyOut,
		Balance:     c.Balance,
		Type:        m.typeFor(desc),
		RawText:     strings.Join(st.Raw, "\n"),
		PageNumber:  st.Page,
	}
	if !txn.Balance.Valid && st.PrevBalance.Valid {
		derived := st.PrevBalance.Decimal.Add(txn.MoneyIn).Sub(txn.MoneyOut)
		txn.Balance = decimal.NullDecimal{Decimal: derived, Valid: true}
	}
	if txn.Balance.Valid {
		st.PrevBalance = txn.Balance
	}

	*out = append(*out, txn)
}

func (m *machine) outLabel() string {
	if len(m.pairs) > 0 {
		return m.pairs[0].Left
	}
	return ""
}

func (m *machine) inLabel() string {
	if len(m.pairs) > 1 {
		return m.pairs[1].Left
	}
	return ""
}

func (m *machine) debitHint(desc string) bool {
	lower := strings.ToLower(desc)
	for _, kw := range m.cfg.DebitKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (m *machine) typeFor(desc string) models.TransactionType {
	lower := strings.ToLower(desc)
	for _, typ := range typeOrder {
		for _, kw := range m.cfg.TypeKeywords[string(typ)] {
			if strings.Contains(lower, kw) {
				return typ
			}
		}
	}
	return ""
}

// documentLines returns the document's text lines with page numbers,
// reconstructing positional lines from coordinate tokens when only
// word-level input is available.
func (m *machine) documentLines(doc models.Document) ([]string, []int) {
	if len(doc.Pages) > 0 {
		return doc.Lines()
	}

	var lines []string
	var pages []int
	for pageIdx, words := range doc.Words {
		for _, line := range linesFromWords(words) {
			lines = append(lines, line)
			pages = append(pages, pageIdx+1)
		}
	}
	return lines, pages
}

// linesFromWords rebuilds fixed-offset text lines from coordinate
// tokens: words are grouped into rows by their top coordinate, sorted
// left to right, and placed at a character offset proportional to x0.
func linesFromWords(words []models.Word) []string {
	const xScale = 7.0 // points per character cell, tuned for 12pt statement fonts

	type row struct {
		top   float64
		words []models.Word
	}
	var rows []row
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		placed := false
		for i := range rows {
			if math.Abs(rows[i].top-w.Top) <= 2.0 {
				rows[i].words = append(rows[i].words, w)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, row{top: w.Top, words: []models.Word{w}})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].top < rows[j].top })

	var lines []string
	for _, r := range rows {
		sort.Slice(r.words, func(i, j int) bool { return r.words[i].X0 < r.words[j].X0 })
		var b strings.Builder
		for _, w := range r.words {
			col := int(w.X0 / xScale)
			for b.Len() < col {
				b.WriteByte(' ')
			}
			if b.Len() > col {
				b.WriteByte(' ')
			}
			b.WriteString(w.Text)
		}
		lines = append(lines, b.String())
	}
	return lines
}
