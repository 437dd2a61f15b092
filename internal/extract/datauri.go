package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidDataURI is returned for payloads not shaped like data:<mime>;base64,<data>.
var ErrInvalidDataURI = errors.New("invalid data URI")

// ParseDataURI splits a base64 data URI into its MIME type and decoded bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || payload == "" {
		return "", nil, ErrInvalidDataURI
	}
	meta, ok := strings.CutPrefix(header, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return "", nil, errors.New("could not determine MIME type from data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrInvalidDataURI, err)
	}
	return mimeType, data, nil
}

// ExtractDataURI decodes uri and extracts text using its declared MIME type.
func ExtractDataURI(ctx context.Context, uri string) (string, error) {
	mimeType, data, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	return Extract(ctx, data, mimeType)
}
