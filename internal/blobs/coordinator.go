// Package blobs owns the lifecycle of uploaded bytes: naming, upload, public URLs and removal.
package blobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"readify-backend/internal/shared/fault"
	"readify-backend/internal/shared/metrics"
	"readify-backend/internal/shared/storage/object"
)

// ErrForeignURL is returned for URLs that were not issued by this coordinator.
var ErrForeignURL = errors.New("blobs: url is not served by this store")

// Coordinator maps between public URLs and object store keys.
type Coordinator struct {
	store   object.ObjectStore
	baseURL string
	naming  NamingPolicy
	log     *zap.Logger
}

// NewCoordinator builds a coordinator that publishes objects under baseURL.
func NewCoordinator(store object.ObjectStore, baseURL string, naming NamingPolicy, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if naming == "" {
		naming = NamingContentHash
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Coordinator{store: store, baseURL: baseURL, naming: naming, log: log}
}

// URL returns the public URL of a storage key.
func (c *Coordinator) URL(key string) string {
	return c.baseURL + strings.TrimLeft(key, "/")
}

// KeyFor recovers the storage key from a URL issued by URL.
func (c *Coordinator) KeyFor(url string) (string, error) {
	key, ok := strings.CutPrefix(url, c.baseURL)
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	return key, nil
}

// Owns reports whether url was issued by this coordinator.
func (c *Coordinator) Owns(url string) bool {
	_, err := c.KeyFor(url)
	return err == nil
}

// Upload stores data under a key chosen by the naming policy and returns its public URL.
// An empty contentType is sniffed from the bytes.
func (c *Coordinator) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key, err := c.naming.key(name, data)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	start := time.Now()
	err = c.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	metrics.ObserveBlob("put", start, err)
	if err != nil {
		return "", fault.Upstream(fault.DependencyObjectStore, "put", key, err)
	}

	c.log.Debug("blob.uploaded", zap.String("key", key), zap.Int("size", len(data)))
	return c.URL(key), nil
}

// Open returns a reader for the object behind url.
func (c *Coordinator) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	key, err := c.KeyFor(url)
	if err != nil {
		return nil, err
	}
	rc, err := c.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, err
		}
		return nil, fault.Upstream(fault.DependencyObjectStore, "get", key, err)
	}
	return rc, nil
}

// Exists reports whether the object behind url is still stored.
func (c *Coordinator) Exists(ctx context.Context, url string) (bool, error) {
	key, err := c.KeyFor(url)
	if err != nil {
		return false, err
	}
	start := time.Now()
	ok, err := c.store.Exists(ctx, key)
	metrics.ObserveBlob("head", start, err)
	if err != nil {
		return false, fault.Upstream(fault.DependencyObjectStore, "head", key, err)
	}
	return ok, nil
}

// Delete removes the object behind url. Missing objects are not an error.
func (c *Coordinator) Delete(ctx context.Context, url string) error {
	key, err := c.KeyFor(url)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.store.Delete(ctx, key)
	metrics.ObserveBlob("delete", start, err)
	if err != nil {
		return fault.Upstream(fault.DependencyObjectStore, "delete", key, err)
	}
	c.log.Debug("blob.deleted", zap.String("key", key))
	return nil
}

// DeleteMany removes every object behind urls in one store batch. Duplicate URLs are
// collapsed; an empty list makes no store call.
func (c *Coordinator) DeleteMany(ctx context.Context, urls []string) error {
	seen := make(map[string]struct{}, len(urls))
	keys := make([]string, 0, len(urls))
	for _, url := range urls {
		key, err := c.KeyFor(url)
		if err != nil {
			return err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}

	start := time.Now()
	err := c.store.DeleteMany(ctx, keys)
	metrics.ObserveBlob("delete_many", start, err)
	if err != nil {
		return fault.Upstream(fault.DependencyObjectStore, "delete_many", "", err)
	}
	c.log.Debug("blob.deleted_many", zap.Int("count", len(keys)))
	return nil
}
