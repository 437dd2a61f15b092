// Package extract turns uploaded bytes into plain text.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
package extract

import (
	"context"
	"errors"
	"fmt"

	"readify-backend/internal/shared/metrics"
)

// ErrExtractionFailed wraps failures of a resolved extractor.
var ErrExtractionFailed = errors.New("text extraction failed")

// Extractor produces plain text from one source format.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

var extractors = map[Format]Extractor{
	FormatText: textExtractor{},
	FormatPDF:  pdfExtractor{},
	FormatDOCX: docxExtractor{},
}

// For returns the extractor registered for format.
func For(format Format) (Extractor, bool) {
	e, ok := extractors[format]
	return e, ok
}

// Extract resolves the declared type and runs the matching extractor.
func Extract(ctx context.Context, data []byte, declared string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format, err := resolveData(declared, data)
	if err != nil {
		metrics.IncExtraction("unsupported", err)
		return "", err
	}
	extractor, ok := For(format)
	if !ok {
		return "", &UnsupportedFormatError{Format: declared}
	}

	text, err := extractor.Extract(ctx, data)
	metrics.IncExtraction(string(format), err)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtractionFailed, format, err)
	}
	return text, nil
}
