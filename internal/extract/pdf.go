package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type pdfExtractor struct{}

// errMalformedPDF reports a document whose structure made the reader panic.
var errMalformedPDF = errors.New("malformed pdf")

// Extract reads every page in order. Pages without a usable text layer contribute an
// empty string; only a document that cannot be opened or walked is an error.
func (pdfExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return guardPDF(func() (string, error) {
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", err
		}

		total := r.NumPage()
		pages := make([]string, 0, total)
		for i := 1; i <= total; i++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			pages = append(pages, pageText(r, i))
		}
		return strings.Join(pages, " "), nil
	})
}

// guardPDF runs read and converts a panic inside the pdf library into errMalformedPDF.
func guardPDF(read func() (string, error)) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", errMalformedPDF, rec)
		}
	}()
	return read()
}

func pageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	p := r.Page(num)
	if p.V.IsNull() {
		return ""
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	out, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
