// Package documents stores document records in the "documents" collection and keeps
// their blobs in step.
package documents

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"readify-backend/internal/shared/fault"
	"readify-backend/internal/shared/storage/kv"
)

// CollectionKey is the KV key holding every document.
const CollectionKey = "documents"

// Service contains business logic for documents.
type Service struct {
	docs  *kv.Collection[Document]
	blobs BlobRemover
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// NewService builds a document service over a collection and a blob remover.
func NewService(docs *kv.Collection[Document], blobs BlobRemover, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		docs:  docs,
		blobs: blobs,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// List returns every document, newest first. Ties are broken by id.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	items, err := s.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	return sorted(items), nil
}

// ListByOwner returns the documents owned by ownerID, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(all))
	for _, doc := range all {
		if doc.OwnerID == ownerID {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	items, err := s.docs.Load(ctx)
	if err != nil {
		return Document{}, err
	}
	doc, ok := items[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// Create assigns an id and creation time and persists the document.
func (s *Service) Create(ctx context.Context, in NewDocument) (Document, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Document{}, ErrInvalidInput
	}
	doc := Document{
		ID:         s.newID(),
		Name:       in.Name,
		Content:    in.Content,
		URL:        in.URL,
		OwnerID:    in.OwnerID,
		OwnerEmail: in.OwnerEmail,
		CreatedAt:  s.now(),
	}
	err := s.docs.Mutate(ctx, func(items map[string]Document) (bool, error) {
		items[doc.ID] = doc
		return true, nil
	})
	if err != nil {
		return Document{}, err
	}
	s.log.Info("document.created", zap.String("document_id", doc.ID), zap.String("owner_id", doc.OwnerID))
	return doc, nil
}

// Update applies patch to an existing document.
func (s *Service) Update(ctx context.Context, id string, patch DocumentPatch) (Document, error) {
	var updated Document
	err := s.docs.Mutate(ctx, func(items map[string]Document) (bool, error) {
		doc, ok := items[id]
		if !ok {
			return false, ErrNotFound
		}
		changed := patch.apply(&doc)
		items[id] = doc
		updated = doc
		return changed, nil
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

// Delete removes a document and its blob. The blob goes first; if that fails the record
// is kept and the error returned. A URL outside the blob store has nothing to release and
// only the record is removed. Deleting an absent document is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.docs.Mutate(ctx, func(items map[string]Document) (bool, error) {
		doc, ok := items[id]
		if !ok {
			return false, nil
		}
		delete(items, id)
		if urls := s.owned(releasable(items, []Document{doc})); len(urls) > 0 {
			if err := s.blobs.Delete(ctx, urls[0]); err != nil {
				items[id] = doc
				return false, err
			}
		}
		s.log.Info("document.deleted", zap.String("document_id", id))
		return true, nil
	})
}

// DeleteMany removes several documents with one blob batch and one write-back.
// Unknown ids are ignored and URLs outside the blob store are left out of the batch.
// When the blob batch fails nothing is written back and a
// *fault.PartialBatchError is returned.
func (s *Service) DeleteMany(ctx context.Context, ids []string) error {
	return s.docs.Mutate(ctx, func(items map[string]Document) (bool, error) {
		removed := make([]Document, 0, len(ids))
		for _, id := range ids {
			doc, ok := items[id]
			if !ok {
				continue
			}
			removed = append(removed, doc)
			delete(items, id)
		}
		if len(removed) == 0 {
			return false, nil
		}

		if urls := s.owned(releasable(items, removed)); len(urls) > 0 {
			if err := s.blobs.DeleteMany(ctx, urls); err != nil {
				return false, &fault.PartialBatchError{Op: "documents.delete_many", Attempted: urls, Err: err}
			}
		}
		s.log.Info("document.deleted_many", zap.Int("count", len(removed)))
		return true, nil
	})
}

// referenced reports whether any stored document points at url.
func (s *Service) referenced(ctx context.Context, url string) (bool, error) {
	items, err := s.docs.Load(ctx)
	if err != nil {
		return false, err
	}
	for _, doc := range items {
		if doc.URL == url {
			return true, nil
		}
	}
	return false, nil
}

// forget drops records without touching blobs. A record is kept if its URL changed
// since it was observed.
func (s *Service) forget(ctx context.Context, stale map[string]string) (int, error) {
	removed := 0
	err := s.docs.Mutate(ctx, func(items map[string]Document) (bool, error) {
		removed = 0
		for id, url := range stale {
			if doc, ok := items[id]; ok && doc.URL == url {
				delete(items, id)
				removed++
			}
		}
		return removed > 0, nil
	})
	return removed, err
}

// owned drops URLs the blob store did not issue, such as records written under an older
// public base URL.
func (s *Service) owned(urls []string) []string {
	out := urls[:0]
	for _, url := range urls {
		if s.blobs.Owns(url) {
			out = append(out, url)
			continue
		}
		s.log.Warn("document.blob_not_owned", zap.String("url", url))
	}
	return out
}

// releasable returns the distinct URLs of removed documents that no survivor references.
func releasable(survivors map[string]Document, removed []Document) []string {
	inUse := make(map[string]struct{}, len(survivors))
	for _, doc := range survivors {
		inUse[doc.URL] = struct{}{}
	}
	seen := make(map[string]struct{}, len(removed))
	urls := make([]string, 0, len(removed))
	for _, doc := range removed {
		if doc.URL == "" {
			continue
		}
		if _, ok := inUse[doc.URL]; ok {
			continue
		}
		if _, ok := seen[doc.URL]; ok {
			continue
		}
		seen[doc.URL] = struct{}{}
		urls = append(urls, doc.URL)
	}
	return urls
}

func sorted(items map[string]Document) []Document {
	out := make([]Document, 0, len(items))
	for _, doc := range items {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
