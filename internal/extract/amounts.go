// Package extract finds monetary tokens in positional statement text,
// assigns them to money-in / money-out / balance, and stitches wrapped
// description lines back together.
package extract

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-engine/internal/normalize"
)

// DefaultMinAmountColumn is the horizontal cutoff below which numeric
// tokens are treated as description text rather than transaction data.
// Exchange-rate annotations and embedded reference numbers sit left of
// this column in every sampled layout. Tuned against sample documents.
const DefaultMinAmountColumn = 50

// amountTokenPattern matches decimal-looking tokens: optional currency
// symbol, optional sign or parentheses, comma/space thousands grouping,
// a decimal point or comma, and an optional trailing CR/DB/DR marker.
var amountTokenPattern = regexp.MustCompile(
	`[£$€]?\s?\(?-?(?:\d{1,3}(?:[., ]\d{3})+|\d+)[.,]\d{2}\)?(?:\s?(?:CR|DB|DR))?`,
)

// AmountToken is one monetary token with its position in the line.
type AmountToken struct {
	Text  string
	Start int // byte offset of the token's first character
	End   int // byte offset one past the token's last character
	Value decimal.Decimal
}

// ExtractAmounts finds monetary tokens in a line. Tokens starting left
// of minColumn are discarded as description text; pass 0 to keep all.
// Unparseable matches are skipped.
func ExtractAmounts(line string, minColumn int, style normalize.AmountStyle) []AmountToken {
	var tokens []AmountToken
	for _, loc := range amountTokenPattern.FindAllStringIndex(line, -1) {
		if loc[0] < minColumn {
			continue
		}
		text := line[loc[0]:loc[1]]
		v, err := normalize.ParseAmount(text, style)
		if err != nil {
			continue
		}
		tokens = append(tokens, AmountToken{
			Text:  text,
			Start: loc[0],
			End:   loc[1],
			Value: v,
		})
	}
	return tokens
}

// StripAmounts replaces every amount token in the line with spaces of
// the same width, preserving the offsets of the surrounding text for
// downstream column arithmetic.
func StripAmounts(line string) string {
	b := []byte(line)
	for _, loc := range amountTokenPattern.FindAllStringIndex(line, -1) {
		for i := loc[0]; i < loc[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}
