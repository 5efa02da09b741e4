// Package layout locates named columns in statement header lines and
// derives the character-offset boundaries used to classify amounts.
package layout

import (
	"errors"
	"strings"
)

// ErrHeaderNotFound is returned when a candidate header line does not
// contain every expected column label. Callers fall back to their
// configured default thresholds.
var ErrHeaderNotFound = errors.New("header labels not found")

// Alignment describes how amounts sit inside their column.
type Alignment int

const (
	// AlignLeft: amounts start at the column label's offset; the boundary
	// between two columns is the midpoint of their label offsets.
	AlignLeft Alignment = iota
	// AlignRight: amounts end at the right edge of their column; the
	// boundary is one short of the next label's offset.
	AlignRight
)

// BoundaryPair names two adjacent column labels that need a threshold
// between them. Thresholds are keyed by the left label.
type BoundaryPair struct {
	Left  string
	Right string
}

// ColumnLayout maps column labels to their detected start offsets and
// the derived classification thresholds. It is scoped to the page or
// section where its header was last seen and is replaced outright, never
// merged, when a new header line appears.
type ColumnLayout struct {
	offsets    map[string]int
	thresholds map[string]int
}

// Offset returns the start offset of a column label.
func (l *ColumnLayout) Offset(label string) (int, bool) {
	if l == nil {
		return 0, false
	}
	off, ok := l.offsets[strings.ToLower(label)]
	return off, ok
}

// Threshold returns the boundary to the right of the named column.
func (l *ColumnLayout) Threshold(leftLabel string) (int, bool) {
	if l == nil {
		return 0, false
	}
	t, ok := l.thresholds[strings.ToLower(leftLabel)]
	return t, ok
}

// DetectColumns finds each label's start offset in a candidate header
// line by case-insensitive substring search and computes a threshold for
// every boundary pair. If any label is missing the whole detection fails.
func DetectColumns(header string, labels []string, pairs []BoundaryPair, mode Alignment) (*ColumnLayout, error) {
	lower := strings.ToLower(header)

	offsets := make(map[string]int, len(labels))
	for _, label := range labels {
		idx := strings.Index(lower, strings.ToLower(label))
		if idx < 0 {
			return nil, ErrHeaderNotFound
		}
		offsets[strings.ToLower(label)] = idx
	}

	thresholds := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		left := offsets[strings.ToLower(pair.Left)]
		right, ok := offsets[strings.ToLower(pair.Right)]
		if !ok {
			return nil, ErrHeaderNotFound
		}
		switch mode {
		case AlignRight:
			thresholds[strings.ToLower(pair.Left)] = right - 1
		default:
			thresholds[strings.ToLower(pair.Left)] = (left + right) / 2
		}
	}

	return &ColumnLayout{offsets: offsets, thresholds: thresholds}, nil
}

// Prescan runs once over the entire document before line-by-line
// processing and returns the first detectable layout, so transactions
// printed before the first visible header (a pagination artifact) still
// classify against sensible thresholds. Returns nil when no line
// qualifies.
func Prescan(lines []string, labels []string, pairs []BoundaryPair, mode Alignment) *ColumnLayout {
	for _, line := range lines {
		if l, err := DetectColumns(line, labels, pairs, mode); err == nil {
			return l
		}
	}
	return nil
}
