// Package engine drives the full statement pipeline: dialect selection,
// line parsing, self-healing reconciliation, and confidence scoring.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/statement-engine/internal/config"
	"github.com/insightdelivered/statement-engine/internal/dialect"
	"github.com/insightdelivered/statement-engine/internal/models"
	"github.com/insightdelivered/statement-engine/internal/validate"
)

// ErrNoTransactions is the engine's only hard failure: a document that
// yields zero transactions. Everything softer is reported as warnings on
// the result.
var ErrNoTransactions = errors.New("no transactions found in document")

// Engine parses statement documents into reconciled transaction lists.
// It is safe for concurrent use.
type Engine struct {
	registry  *dialect.Registry
	validator *validate.Validator
	log       *zap.Logger
}

// New builds an engine over the given dialect configurations.
func New(cfgs map[string]config.Dialect, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	registry, err := dialect.NewRegistry(cfgs)
	if err != nil {
		return nil, err
	}
	return &Engine{
		registry:  registry,
		validator: validate.New(),
		log:       log,
	}, nil
}

// Dialects lists the names the engine can parse.
func (e *Engine) Dialects() []string {
	return e.registry.Names()
}

// Detect identifies the issuing institution of a document.
func (e *Engine) Detect(doc models.Document) (string, error) {
	return e.registry.AutoDetect(doc)
}

// Parse runs one document through the pipeline. An empty or "auto"
// dialect name triggers issuer auto-detection.
func (e *Engine) Parse(ctx context.Context, doc models.Document, dialectName string) (*models.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if dialectName == "" || dialectName == "auto" {
		detected, err := e.registry.AutoDetect(doc)
		if err != nil {
			return nil, err
		}
		e.log.Debug("auto-detected dialect", zap.String("dialect", detected))
		dialectName = detected
	}

	d, err := e.registry.Get(dialectName)
	if err != nil {
		return nil, err
	}
	cfg, _ := e.registry.Config(dialectName)

	stmt := dialect.ResolveMetadata(doc, cfg)

	txns, warnings, err := d.Parse(doc, stmt.Period)
	if err != nil {
		return nil, fmt.Errorf("parsing %s statement: %w", d.Name(), err)
	}
	if len(txns) == 0 {
		return nil, ErrNoTransactions
	}

	warnings = append(warnings, e.validator.SelfHeal(txns)...)
	validate.BackfillBalances(txns)

	check := e.validator.CheckStatement(stmt, txns)
	if !check.OK && check.Message != "" {
		warnings = append(warnings, check.Message)
	}

	validate.ScoreAll(txns)

	for _, w := range warnings {
		e.log.Warn("parse warning", zap.String("dialect", d.Name()), zap.String("warning", w))
	}
	e.log.Info("parsed statement",
		zap.String("dialect", d.Name()),
		zap.Int("transactions", len(txns)),
		zap.Int("warnings", len(warnings)),
		zap.Bool("reconciled", check.OK))

	return &models.ParseResult{
		Statement:         stmt,
		Transactions:      txns,
		Warnings:          warnings,
		BalanceReconciled: check.OK,
	}, nil
}

// ParseBatch parses several documents concurrently, one result per
// document in input order. A fault in one document, whether a parse
// error or a panic, is contained: that slot gets an empty result
// carrying the failure as a warning, and the rest of the batch is
// unaffected.
func (e *Engine) ParseBatch(ctx context.Context, docs []models.Document, dialectName string) ([]*models.ParseResult, error) {
	results := make([]*models.ParseResult, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			results[i] = e.parseContained(ctx, doc, dialectName)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// parseContained never fails: errors and panics both degrade the
// document to an empty result with the failure as a warning.
func (e *Engine) parseContained(ctx context.Context, doc models.Document, dialectName string) (res *models.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic while parsing document", zap.Any("panic", r))
			res = &models.ParseResult{
				Warnings: []string{fmt.Sprintf("parser failure: %v", r)},
			}
		}
	}()
	parsed, err := e.Parse(ctx, doc, dialectName)
	if err != nil {
		e.log.Warn("document failed to parse", zap.Error(err))
		return &models.ParseResult{
			Warnings: []string{fmt.Sprintf("parse failure: %v", err)},
		}
	}
	return parsed
}
