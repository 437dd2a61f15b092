package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readify-backend/internal/extract"
)

type fakeSpeech struct {
	text, voice string
	err         error
}

func (f *fakeSpeech) Synthesize(_ context.Context, text, voice string) (string, error) {
	f.text, f.voice = text, voice
	if f.err != nil {
		return "", f.err
	}
	return "data:audio/mpeg;base64,bXAz", nil
}

func TestIngestTextUpload(t *testing.T) {
	f := newFixture(t)
	ing := &Ingestor{Docs: f.svc, Blobs: f.blobs}

	doc, err := ing.Ingest(context.Background(), Upload{
		Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello reader"),
		OwnerID: "u1", OwnerEmail: "u1@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello reader", doc.Content)
	assert.Equal(t, "blob://notes.txt", doc.URL)
	assert.Equal(t, "u1", doc.OwnerID)
	assert.Equal(t, []string{"blob://notes.txt"}, f.blobs.uploads)
}

func TestIngestFallsBackToFileName(t *testing.T) {
	f := newFixture(t)
	ing := &Ingestor{Docs: f.svc, Blobs: f.blobs}

	doc, err := ing.Ingest(context.Background(), Upload{
		Name: "notes.md", ContentType: "application/octet-stream", Data: []byte("# title"),
	})
	require.NoError(t, err)
	assert.Equal(t, "# title", doc.Content)
}

func TestIngestRejectsUnsupportedBeforeUpload(t *testing.T) {
	f := newFixture(t)
	ing := &Ingestor{Docs: f.svc, Blobs: f.blobs}

	_, err := ing.Ingest(context.Background(), Upload{Name: "photo.png", ContentType: "image/png", Data: []byte{0x89}})
	var unsupported *extract.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "image/png", unsupported.Format)
	assert.Empty(t, f.blobs.uploads)
}

func TestIngestRemovesBlobWhenExtractionFails(t *testing.T) {
	f := newFixture(t)
	ing := &Ingestor{Docs: f.svc, Blobs: f.blobs}

	_, err := ing.Ingest(context.Background(), Upload{Name: "broken.pdf", ContentType: "application/pdf", Data: []byte("not a pdf")})
	require.ErrorIs(t, err, extract.ErrExtractionFailed)
	assert.Equal(t, []string{"blob://broken.pdf"}, f.blobs.deleted)

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngestKeepsBlobReferencedByAnotherDocument(t *testing.T) {
	f := newFixture(t)
	f.create(t, "broken.pdf", "blob://broken.pdf", "u1")
	ing := &Ingestor{Docs: f.svc, Blobs: f.blobs}

	_, err := ing.Ingest(context.Background(), Upload{Name: "broken.pdf", ContentType: "application/pdf", Data: []byte("not a pdf")})
	require.Error(t, err)
	assert.Empty(t, f.blobs.deleted)
}

func TestIngestRemovesBlobWhenCreateFails(t *testing.T) {
	f := newFixture(t)
	f.backend.failSet = errors.New("kv down")
	ing := &Ingestor{Docs: f.svc, Blobs: f.blobs}

	_, err := ing.Ingest(context.Background(), Upload{Name: "a.txt", ContentType: "text/plain", Data: []byte("a")})
	require.Error(t, err)
	assert.Equal(t, []string{"blob://a.txt"}, f.blobs.deleted)
}

func TestNarrateAttachesAudio(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	sp := &fakeSpeech{}
	n := &Narrator{Docs: f.svc, Speech: sp}

	updated, err := n.Narrate(context.Background(), doc.ID, "nova")
	require.NoError(t, err)
	assert.Equal(t, "data:audio/mpeg;base64,bXAz", updated.AudioRef)
	assert.Equal(t, doc.Content, sp.text)
	assert.Equal(t, "nova", sp.voice)

	stored, err := f.svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.AudioRef, stored.AudioRef)
}

func TestNarrateFailureLeavesDocumentUntouched(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	n := &Narrator{Docs: f.svc, Speech: &fakeSpeech{err: errors.New("provider down")}}
	writes := f.backend.writes()

	_, err := n.Narrate(context.Background(), doc.ID, "alloy")
	require.Error(t, err)
	assert.Equal(t, writes, f.backend.writes())

	_, err = n.Narrate(context.Background(), "missing", "alloy")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepFindsAndRemovesStaleRecords(t *testing.T) {
	f := newFixture(t)
	live := f.create(t, "live.txt", "blob://live", "u1")
	stale := f.create(t, "gone.txt", "blob://gone", "u1")
	f.create(t, "external", "https://elsewhere.test/x", "u1")
	f.create(t, "pasted", "", "u1")
	f.blobs.missing["blob://gone"] = true
	r := &Reconciler{Docs: f.svc, Blobs: f.blobs}

	report, err := r.Sweep(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Stale, 1)
	assert.Equal(t, stale.ID, report.Stale[0].ID)
	assert.Zero(t, report.Removed)
	_, err = f.svc.Get(context.Background(), stale.ID)
	require.NoError(t, err, "dry run keeps records")

	report, err = r.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	_, err = f.svc.Get(context.Background(), stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(context.Background(), live.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.blobs.deleted, "sweep never deletes blobs")
}
