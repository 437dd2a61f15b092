package extract

import (
	"context"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

type textExtractor struct{}

// Extract returns the bytes as UTF-8. Invalid UTF-8 is decoded as ISO-8859-1.
func (textExtractor) Extract(_ context.Context, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
