package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags a transaction with the payment mechanism that
// produced it, when one could be determined from the statement text.
type TransactionType string

const (
	TypeDirectDebit    TransactionType = "DIRECT_DEBIT"
	TypeStandingOrder  TransactionType = "STANDING_ORDER"
	TypeCardPayment    TransactionType = "CARD_PAYMENT"
	TypeCashWithdrawal TransactionType = "CASH_WITHDRAWAL"
	TypeTransfer       TransactionType = "TRANSFER"
	TypeBankCredit     TransactionType = "BANK_CREDIT"
	TypeCheque         TransactionType = "CHEQUE"
	TypeFee            TransactionType = "FEE"
	TypeInterest       TransactionType = "INTEREST"
	TypeOther          TransactionType = "OTHER"
)

// Transaction represents a single statement entry.
//
// MoneyIn and MoneyOut are never negative. A transaction need not have
// exactly one nonzero amount: synthetic marker rows ("brought forward",
// period breaks) carry zero amounts and only a balance. Transactions are
// created by a dialect parser and mutated only by the reconciliation
// validator (direction swap, balance overwrite) and running-balance
// backfill; they are immutable after that.
type Transaction struct {
	Date        time.Time
	Description string
	MoneyIn     decimal.Decimal
	MoneyOut    decimal.Decimal
	Balance     decimal.NullDecimal
	Type        TransactionType
	Confidence  int    // 0-100
	RawText     string // original line(s), for diagnostics
	PageNumber  int    // 1-based; 0 = unknown
}

// markerPhrases identify synthetic balance rows that reset parsing and
// validation state rather than representing real account activity.
var markerPhrases = []string{
	"balance brought forward",
	"brought forward",
	"start balance",
	"opening balance",
	"balance carried forward",
	"balance from previous statement",
}

// IsMarkerText reports whether free text contains brought-forward or
// period-break wording.
func IsMarkerText(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range markerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsMarker reports whether the transaction is a brought-forward or
// period-break row: zero amounts, a balance, and marker wording.
func (t Transaction) IsMarker() bool {
	if !t.MoneyIn.IsZero() || !t.MoneyOut.IsZero() {
		return false
	}
	if !t.Balance.Valid {
		return false
	}
	return IsMarkerText(t.Description)
}

// ClampConfidence forces Confidence into [0, 100].
func (t *Transaction) ClampConfidence() {
	if t.Confidence < 0 {
		t.Confidence = 0
	}
	if t.Confidence > 100 {
		t.Confidence = 100
	}
}

// transactionJSON is the wire form of a Transaction. Amounts are emitted
// as JSON numbers, dates as YYYY-MM-DD, absent fields as null.
type transactionJSON struct {
	Date        string       `json:"date"`
	Description string       `json:"description"`
	MoneyIn     json.Number  `json:"money_in"`
	MoneyOut    json.Number  `json:"money_out"`
	Balance     *json.Number `json:"balance"`
	Type        *string      `json:"transaction_type"`
	Confidence  int          `json:"confidence"`
	PageNumber  *int         `json:"page_number"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		MoneyIn:     json.Number(t.MoneyIn.StringFixed(2)),
		MoneyOut:    json.Number(t.MoneyOut.StringFixed(2)),
		Confidence:  t.Confidence,
	}
	if t.Balance.Valid {
		n := json.Number(t.Balance.Decimal.StringFixed(2))
		out.Balance = &n
	}
	if t.Type != "" {
		s := string(t.Type)
		out.Type = &s
	}
	if t.PageNumber > 0 {
		p := t.PageNumber
		out.PageNumber = &p
	}
	return json.Marshal(out)
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return fmt.Errorf("parsing transaction date %q: %w", in.Date, err)
	}

	moneyIn, err := decimal.NewFromString(in.MoneyIn.String())
	if err != nil {
		return fmt.Errorf("parsing money_in %q: %w", in.MoneyIn, err)
	}
	moneyOut, err := decimal.NewFromString(in.MoneyOut.String())
	if err != nil {
		return fmt.Errorf("parsing money_out %q: %w", in.MoneyOut, err)
	}

	t.Date = date
	t.Description = in.Description
	t.MoneyIn = moneyIn
	t.MoneyOut = moneyOut
	t.Confidence = in.Confidence

	t.Balance = decimal.NullDecimal{}
	if in.Balance != nil {
		bal, err := decimal.NewFromString(in.Balance.String())
		if err != nil {
			return fmt.Errorf("parsing balance %q: %w", *in.Balance, err)
		}
		t.Balance = decimal.NullDecimal{Decimal: bal, Valid: true}
	}

	t.Type = ""
	if in.Type != nil {
		t.Type = TransactionType(*in.Type)
	}

	t.PageNumber = 0
	if in.PageNumber != nil {
		t.PageNumber = *in.PageNumber
	}
	return nil
}
