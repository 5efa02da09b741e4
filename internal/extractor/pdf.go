// Package extractor turns PDF statements into documents the dialect
// parsers can consume: fixed-offset text pages plus positioned word
// tokens for coordinate-aware processing.
package extractor

import (
	"fmt"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/statement-engine/internal/models"
)

// pointsPerColumn converts PDF x coordinates to character columns when
// rendering positional text lines. Tuned for the 10-12pt fonts UK
// statements use.
const pointsPerColumn = 7.0

// rowTolerance is how far apart two baselines may sit and still belong
// to the same text row.
const rowTolerance = 2.0

// ExtractDocument reads a PDF file and returns its pages as
// fixed-offset text plus per-page word tokens. The structured library
// is tried first; PDFs it cannot decode fall through to the external
// pdftotext command. Garbage output is never returned.
func ExtractDocument(filePath string) (models.Document, error) {
	doc, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadableText(doc.Pages) {
		doc.ExtractionConfidence = textQuality(doc.Pages)
		return doc, nil
	}

	pages, popplerErr := extractWithPdftotext(filePath)
	if popplerErr == nil && isReadableText(pages) {
		return models.Document{
			Pages:                pages,
			ExtractionConfidence: textQuality(pages),
		}, nil
	}

	if libErr != nil {
		return models.Document{}, fmt.Errorf("PDF text extraction failed: %v; the file may be image-based or use custom font encodings", libErr)
	}
	return models.Document{}, fmt.Errorf("no readable text could be extracted; the file may be image-based or use custom font encodings")
}

// extractWithLibrary uses ledongthuc/pdf. Content-stream extraction
// with coordinate reconstruction comes first because it preserves the
// column offsets the parsers depend on; the plain-text paths are only a
// fallback for PDFs whose content streams it cannot position.
func extractWithLibrary(filePath string) (doc models.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return models.Document{}, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return models.Document{}, fmt.Errorf("PDF has no pages")
	}

	doc = extractByContent(r, numPages)
	if isReadableText(doc.Pages) {
		return doc, nil
	}

	pages := extractByPlainText(r, numPages)
	if isReadableText(pages) {
		return models.Document{Pages: pages}, nil
	}

	return doc, nil
}

// extractByContent walks each page's content stream and rebuilds rows
// from text coordinates: pieces are grouped by baseline, merged into
// words, and placed on the line at a column proportional to x.
func extractByContent(r *pdf.Reader, numPages int) models.Document {
	var doc models.Document
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, "")
			doc.Words = append(doc.Words, nil)
			continue
		}
		words := wordsFromContent(page.Content())
		doc.Pages = append(doc.Pages, renderPositionalLines(words))
		doc.Words = append(doc.Words, words)
	}
	return doc
}

// wordsFromContent merges adjacent text pieces into words. PDF y runs
// bottom-to-top; tokens are flipped so Top increases downward.
func wordsFromContent(content pdf.Content) []models.Word {
	pieces := make([]pdf.Text, 0, len(content.Text))
	maxY := 0.0
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		if t.Y > maxY {
			maxY = t.Y
		}
		pieces = append(pieces, t)
	}
	sort.Slice(pieces, func(a, b int) bool {
		if math.Abs(pieces[a].Y-pieces[b].Y) > rowTolerance {
			return pieces[a].Y > pieces[b].Y
		}
		return pieces[a].X < pieces[b].X
	})

	var words []models.Word
	for _, t := range pieces {
		top := maxY - t.Y
		if n := len(words); n > 0 {
			last := &words[n-1]
			sameRow := math.Abs(last.Top-top) <= rowTolerance
			// A gap under one point means the pieces belong to the
			// same word (many PDFs emit text glyph by glyph).
			if sameRow && t.X <= last.X1+1.0 {
				last.Text += t.S
				last.X1 = t.X + t.W
				continue
			}
		}
		words = append(words, models.Word{
			X0:     t.X,
			X1:     t.X + t.W,
			Top:    top,
			Bottom: top + t.FontSize,
			Text:   t.S,
		})
	}
	return words
}

// renderPositionalLines lays words out as fixed-offset text so that
// column arithmetic downstream sees the same geometry as the page.
func renderPositionalLines(words []models.Word) string {
	type row struct {
		top   float64
		words []models.Word
	}
	var rows []row
	for _, w := range words {
		placed := false
		for i := range rows {
			if math.Abs(rows[i].top-w.Top) <= rowTolerance {
				rows[i].words = append(rows[i].words, w)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, row{top: w.Top, words: []models.Word{w}})
		}
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].top < rows[b].top })

	var lines []string
	for _, r := range rows {
		sort.Slice(r.words, func(a, b int) bool { return r.words[a].X0 < r.words[b].X0 })
		var b strings.Builder
		for _, w := range r.words {
			col := int(w.X0 / pointsPerColumn)
			for b.Len() < col {
				b.WriteByte(' ')
			}
			if b.Len() > col {
				b.WriteByte(' ')
			}
			b.WriteString(w.Text)
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// extractByPlainText is the structured library's text-only path, used
// when coordinate reconstruction yields garbage.
func extractByPlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fontNames := page.Fonts()
		fonts := make(map[string]*pdf.Font, len(fontNames))
		for _, name := range fontNames {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// extractWithPdftotext shells out to poppler-utils, the last resort for
// PDFs the Go library cannot decode. -layout keeps column offsets.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %v", err)
	}

	numPages := 1
	if out, err := exec.Command("pdfinfo", filePath).Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(line, "Pages:") {
				if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))); err == nil && n > 0 {
					numPages = n
				}
			}
		}
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		p := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", p, "-l", p, filePath, "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimRight(string(out), "\n "); strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		out, err := exec.Command("pdftotext", "-layout", filePath, "-").Output()
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed: %v", err)
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			return []string{text}, nil
		}
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// textQuality returns the ratio of plainly readable characters to total.
// A strict ASCII check is deliberate: unicode.IsLetter matches the
// accented garbage that identity-encoded fonts decode to.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"£$€%&@#!?+=*`, r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// statementWords appear in virtually every bank statement; text that
// contains none of them is treated as decode garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "sort code",
	"money", "paid", "opening", "closing", "transfer", "direct",
	"number", "page", "period",
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsStatementWords(pages)
}

// IsReadableText reports whether extracted pages look like decoded
// statement text rather than font garbage.
func IsReadableText(pages []string) bool {
	return isReadableText(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
