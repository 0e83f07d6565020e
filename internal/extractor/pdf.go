package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned for PDFs that parse but carry no extractable text (scans)
var ErrNoText = errors.New("no text content found in PDF")

// PDFExtractor pulls plain text out of a PDF on disk
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF text extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText returns the text of every page, pages separated by a blank line.
// Pages that fail to decode are skipped.
func (p *PDFExtractor) ExtractText(ctx context.Context, filePath string) (text string, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	text = CleanText(textBuilder.String())
	if text == "" {
		return "", ErrNoText
	}

	return text, nil
}

// CleanText trims every line and drops blank ones
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := lines[:0]

	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
