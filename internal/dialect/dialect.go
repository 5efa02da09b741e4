// Package dialect holds the per-institution statement parsers. Every
// dialect implements one contract: consume a document's line stream plus
// the statement period and emit an ordered transaction list. Most
// dialects share the state-machine skeleton in machine.go and differ
// only in configuration and line preparation quirks.
package dialect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-engine/internal/config"
	"github.com/insightdelivered/statement-engine/internal/models"
)

// Dialect parses one institution's statement layout.
type Dialect interface {
	// Parse consumes the full document and emits transactions in
	// statement order, plus human-readable warnings.
	Parse(doc models.Document, period models.Period) ([]models.Transaction, []string, error)
	// Name is the registry key, e.g. "hsbc".
	Name() string
	// Issuer is the human-readable institution name.
	Issuer() string
}

// Registry holds constructed dialects keyed by name.
type Registry struct {
	dialects map[string]Dialect
	configs  map[string]config.Dialect
}

// NewRegistry builds the dialects for the given configuration bundles.
func NewRegistry(cfgs map[string]config.Dialect) (*Registry, error) {
	r := &Registry{
		dialects: make(map[string]Dialect, len(cfgs)),
		configs:  cfgs,
	}
	for name, cfg := range cfgs {
		d, err := build(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("building dialect %q: %w", name, err)
		}
		r.dialects[name] = d
	}
	return r, nil
}

func build(name string, cfg config.Dialect) (Dialect, error) {
	switch name {
	case "metro":
		return newMetro(cfg)
	case "hsbc":
		return newHSBC(cfg)
	case "barclays":
		return newBarclays(cfg)
	default:
		m, err := newMachine(cfg, nil)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Get returns the dialect for name.
func (r *Registry) Get(name string) (Dialect, error) {
	d, ok := r.dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %q", name)
	}
	return d, nil
}

// Config returns the configuration bundle behind a dialect.
func (r *Registry) Config(name string) (config.Dialect, bool) {
	cfg, ok := r.configs[strings.ToLower(name)]
	return cfg, ok
}

// Names lists the registered dialect names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dialects))
	for name := range r.dialects {
		names = append(names, name)
	}
	return names
}

// AutoDetect identifies the issuing institution from document content
// using each dialect's detection keywords. The "generic" dialect never
// auto-detects; it is only selected explicitly.
func (r *Registry) AutoDetect(doc models.Document) (string, error) {
	combined := strings.ToLower(strings.Join(doc.Pages, "\n"))
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, kw := range r.configs[name].DetectKeywords {
			if strings.Contains(combined, strings.ToLower(kw)) {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("could not auto-detect issuer from statement content; specify the dialect explicitly")
}
