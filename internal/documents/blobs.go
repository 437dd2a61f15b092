package documents

import "context"

// BlobRemover releases stored bytes by URL. Missing objects are not an error. Owns reports
// whether a URL points into the store; other URLs have no bytes to release.
type BlobRemover interface {
	Owns(url string) bool
	Delete(ctx context.Context, url string) error
	DeleteMany(ctx context.Context, urls []string) error
}

// BlobUploader stores bytes and returns the URL they are served from.
type BlobUploader interface {
	BlobRemover
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// BlobChecker reports whether the bytes behind a URL still exist.
type BlobChecker interface {
	Exists(ctx context.Context, url string) (bool, error)
}
