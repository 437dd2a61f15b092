package documents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"readify-backend/internal/extract"
)

// Upload is one file submitted for ingestion.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
	OwnerID     string
	OwnerEmail  string
}

// Ingestor stores uploaded bytes, extracts their text and records the document.
type Ingestor struct {
	Docs  *Service
	Blobs BlobUploader
	Log   *zap.Logger
}

// Ingest runs upload, extraction and create in order. The format is checked before any
// bytes are stored; if a later step fails the stored blob is removed again unless another
// document already references it.
func (i *Ingestor) Ingest(ctx context.Context, up Upload) (Document, error) {
	log := i.Log
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(up.Name) == "" {
		return Document{}, ErrInvalidInput
	}

	declared, err := declaredType(up)
	if err != nil {
		return Document{}, err
	}

	url, err := i.Blobs.Upload(ctx, up.Name, up.Data, up.ContentType)
	if err != nil {
		return Document{}, fmt.Errorf("ingest upload: %w", err)
	}

	text, err := extract.Extract(ctx, up.Data, declared)
	if err != nil {
		i.compensate(ctx, log, url)
		return Document{}, err
	}

	doc, err := i.Docs.Create(ctx, NewDocument{
		Name:       up.Name,
		Content:    text,
		URL:        url,
		OwnerID:    up.OwnerID,
		OwnerEmail: up.OwnerEmail,
	})
	if err != nil {
		i.compensate(ctx, log, url)
		return Document{}, err
	}
	return doc, nil
}

func (i *Ingestor) compensate(ctx context.Context, log *zap.Logger, url string) {
	inUse, err := i.Docs.referenced(ctx, url)
	if err != nil {
		log.Warn("ingest.compensate_skipped", zap.String("url", url), zap.Error(err))
		return
	}
	if inUse {
		return
	}
	if err := i.Blobs.Delete(ctx, url); err != nil {
		log.Warn("ingest.compensate_failed", zap.String("url", url), zap.Error(err))
	}
}

// declaredType picks the MIME type when it resolves and falls back to the file name, since
// browsers often send application/octet-stream. Zip uploads are passed through so the
// extractor can recognise Office packages.
func declaredType(up Upload) (string, error) {
	if _, err := extract.Resolve(up.ContentType); err == nil {
		return up.ContentType, nil
	}
	if _, err := extract.Resolve(up.Name); err == nil {
		return up.Name, nil
	}
	if strings.HasPrefix(strings.ToLower(up.ContentType), "application/zip") {
		return up.ContentType, nil
	}
	declared := up.ContentType
	if declared == "" {
		declared = up.Name
	}
	return "", &extract.UnsupportedFormatError{Format: declared}
}
