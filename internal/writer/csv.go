// Package writer exports parse results as CSV and JSON.
package writer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-engine/internal/models"
)

// CSVWriter writes a parse result as CSV, one row per transaction.
type CSVWriter struct {
	// IncludeHeader emits statement metadata as comment rows before the
	// column header.
	IncludeHeader bool
	// IncludeConfidence appends a confidence column.
	IncludeConfidence bool
}

// WriteToFile writes the result to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, res *models.ParseResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, res)
}

// Write writes the result in CSV format.
func (w *CSVWriter) Write(out io.Writer, res *models.ParseResult) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if w.IncludeHeader {
		stmt := res.Statement
		meta := [][2]string{
			{"# Issuer", stmt.Issuer},
			{"# Account Holder", stmt.Holder},
			{"# Account Number", stmt.AccountNumber},
			{"# Sort Code", stmt.SortCode},
			{"# Currency", stmt.Currency},
		}
		for _, m := range meta {
			if m[1] == "" {
				continue
			}
			if err := cw.Write([]string{m[0], m[1]}); err != nil {
				return fmt.Errorf("writing CSV metadata: %w", err)
			}
		}
		if !stmt.Period.Start.IsZero() {
			period := stmt.Period.Start.Format("02/01/2006") + " to " + stmt.Period.End.Format("02/01/2006")
			if err := cw.Write([]string{"# Statement Period", period}); err != nil {
				return fmt.Errorf("writing CSV metadata: %w", err)
			}
		}
	}

	header := []string{"Date", "Description", "Type", "Money Out", "Money In", "Balance"}
	if w.IncludeConfidence {
		header = append(header, "Confidence")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, txn := range res.Transactions {
		date := ""
		if !txn.Date.IsZero() {
			date = txn.Date.Format("02/01/2006")
		}
		balance := ""
		if txn.Balance.Valid {
			balance = txn.Balance.Decimal.StringFixed(2)
		}
		row := []string{
			date,
			txn.Description,
			string(txn.Type),
			formatAmount(txn.MoneyOut),
			formatAmount(txn.MoneyIn),
			balance,
		}
		if w.IncludeConfidence {
			row = append(row, strconv.Itoa(txn.Confidence))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	return nil
}

func formatAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}

// JSONWriter writes a parse result as indented JSON.
type JSONWriter struct{}

// Write writes the result in JSON format.
func (w *JSONWriter) Write(out io.Writer, res *models.ParseResult) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding JSON result: %w", err)
	}
	return nil
}

// WriteToFile writes the result to a JSON file at the given path.
func (w *JSONWriter) WriteToFile(path string, res *models.ParseResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, res)
}
