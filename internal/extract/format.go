package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Format is a supported source format.
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"
)

// ErrUnsupportedFormat matches every UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// UnsupportedFormatError names the declared type no extractor handles.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedFormat, e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

var extensionFormats = map[string]Format{
	".txt":  FormatText,
	".text": FormatText,
	".md":   FormatText,
	".csv":  FormatText,
	".log":  FormatText,
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
}

// Resolve maps a declared MIME type or file name to a Format.
// MIME parameters are ignored and extensions are matched case-insensitively.
func Resolve(declared string) (Format, error) {
	clean := strings.ToLower(strings.TrimSpace(declared))
	if clean == "" {
		return "", &UnsupportedFormatError{Format: declared}
	}

	if mt, _, err := mime.ParseMediaType(clean); err == nil && strings.Contains(mt, "/") {
		switch {
		case strings.HasPrefix(mt, "text/"):
			return FormatText, nil
		case mt == mimePDF:
			return FormatPDF, nil
		case mt == mimeDOCX:
			return FormatDOCX, nil
		}
		return "", &UnsupportedFormatError{Format: declared}
	}

	ext := filepath.Ext(clean)
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", &UnsupportedFormatError{Format: declared}
}

// resolveData applies Resolve and then inspects zip payloads, which browsers often report
// as application/zip for Office packages.
func resolveData(declared string, data []byte) (Format, error) {
	format, err := Resolve(declared)
	if err == nil {
		return format, nil
	}
	mt, _, perr := mime.ParseMediaType(strings.ToLower(strings.TrimSpace(declared)))
	if perr == nil && mt == mimeZip && isDOCXPackage(data) {
		return FormatDOCX, nil
	}
	return "", err
}

func isDOCXPackage(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
