// Package pdf extracts plain text from PDF files so the verification
// pipeline can consume papers directly. Extraction quality is best-effort;
// the pipeline's reference-section heuristics tolerate noisy text.
package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts text from all pages of a PDF file.
func ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	return extractPages(r)
}

// ExtractTextReader extracts text from a PDF reader.
func ExtractTextReader(r io.ReaderAt, size int64) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}

	return extractPages(pdfReader)
}

// extractPages concatenates plain text page by page. Pages that fail to
// decode are skipped; references typically survive even when figures don't.
func extractPages(r *pdf.Reader) (string, error) {
	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", fmt.Errorf("no extractable text in PDF")
	}

	return builder.String(), nil
}
