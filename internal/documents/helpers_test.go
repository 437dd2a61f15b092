package documents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"readify-backend/internal/blobs"
	"readify-backend/internal/shared/storage/kv"
)

type countingBackend struct {
	*kv.Memory
	mu      sync.Mutex
	sets    int
	failGet error
	failSet error
}

func (b *countingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.failGet != nil {
		return nil, b.failGet
	}
	return b.Memory.Get(ctx, key)
}

func (b *countingBackend) Set(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	b.sets++
	b.mu.Unlock()
	if b.failSet != nil {
		return b.failSet
	}
	return b.Memory.Set(ctx, key, value)
}

func (b *countingBackend) writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sets
}

type fakeBlobs struct {
	mu         sync.Mutex
	uploads    []string
	deleted    []string
	batches    [][]string
	missing    map[string]bool
	failDelete error
	failUpload error
}

func (f *fakeBlobs) Upload(_ context.Context, name string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload != nil {
		return "", f.failUpload
	}
	url := "blob://" + name
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeBlobs) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeBlobs) DeleteMany(_ context.Context, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), urls...))
	return f.failDelete
}

func (f *fakeBlobs) Owns(url string) bool {
	return !strings.HasPrefix(url, "https://")
}

func (f *fakeBlobs) Exists(_ context.Context, url string) (bool, error) {
	if strings.HasPrefix(url, "https://") {
		return false, blobs.ErrForeignURL
	}
	return !f.missing[url], nil
}

type fixture struct {
	svc     *Service
	backend *countingBackend
	blobs   *fakeBlobs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &countingBackend{Memory: kv.NewMemory()}
	fb := &fakeBlobs{missing: map[string]bool{}}
	svc := NewService(kv.NewCollection[Document](backend, CollectionKey, kv.NewLocker()), fb, nil)

	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	var mu sync.Mutex
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("doc-%02d", seq)
	}
	return &fixture{svc: svc, backend: backend, blobs: fb}
}

func (f *fixture) create(t *testing.T, name, url, owner string) Document {
	t.Helper()
	doc, err := f.svc.Create(context.Background(), NewDocument{Name: name, Content: "text of " + name, URL: url, OwnerID: owner, OwnerEmail: owner + "@example.com"})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return doc
}
