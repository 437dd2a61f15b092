package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readify-backend/internal/shared/fault"
	"readify-backend/internal/shared/storage/kv"
)

func TestListEmptyCollection(t *testing.T) {
	f := newFixture(t)
	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestCreateThenList(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "a.txt", "blob://a", "u1")

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, created.CreatedAt.Location())

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, created, docs[0])
	assert.Equal(t, "text of a.txt", docs[0].Content)
	assert.Equal(t, "u1@example.com", docs[0].OwnerEmail)
}

func TestCreateStampsCurrentTime(t *testing.T) {
	docs := kv.NewCollection[Document](kv.NewMemory(), CollectionKey, kv.NewLocker())
	svc := NewService(docs, &fakeBlobs{}, nil)

	before := time.Now()
	doc, err := svc.Create(context.Background(), NewDocument{Name: "a.txt", URL: "blob://a", OwnerID: "u1"})
	require.NoError(t, err)

	assert.False(t, doc.CreatedAt.Before(before), "createdAt %s is before %s", doc.CreatedAt, before)
	assert.False(t, doc.CreatedAt.After(time.Now()))
	assert.Equal(t, time.UTC, doc.CreatedAt.Location())
}

func TestCreateRequiresName(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), NewDocument{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, f.backend.writes())
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "1.txt", "blob://1", "u1")
	second := f.create(t, "2.txt", "blob://2", "u1")
	third := f.create(t, "3.txt", "blob://3", "u1")

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	for i := 1; i < len(docs); i++ {
		assert.True(t, docs[i-1].CreatedAt.After(docs[i].CreatedAt))
	}
}

func TestListBreaksTiesByID(t *testing.T) {
	f := newFixture(t)
	fixed := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	b := f.create(t, "b.txt", "", "u1")
	a := f.create(t, "a.txt", "", "u1")

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Less(t, docs[0].ID, docs[1].ID)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, []string{docs[0].ID, docs[1].ID})
}

func TestGetAndListByOwner(t *testing.T) {
	f := newFixture(t)
	mine := f.create(t, "mine.txt", "blob://mine", "u1")
	f.create(t, "theirs.txt", "blob://theirs", "u2")

	got, err := f.svc.Get(context.Background(), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine, got)

	_, err = f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	owned, err := f.svc.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, mine.ID, owned[0].ID)
}

func TestUpdateAttachesAudioOnly(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")

	audio := "data:audio/mpeg;base64,AAAA"
	updated, err := f.svc.Update(context.Background(), doc.ID, DocumentPatch{AudioRef: &audio})
	require.NoError(t, err)
	assert.Equal(t, audio, updated.AudioRef)
	assert.Equal(t, doc.CreatedAt, updated.CreatedAt)
	assert.Equal(t, doc.Name, updated.Name)

	stored, err := f.svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, audio, stored.AudioRef)
}

func TestUpdateUnknownDocument(t *testing.T) {
	f := newFixture(t)
	writes := f.backend.writes()
	_, err := f.svc.Update(context.Background(), "nope", DocumentPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, writes, f.backend.writes())
}

func TestUpdateWithoutChangesSkipsWrite(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	writes := f.backend.writes()

	_, err := f.svc.Update(context.Background(), doc.ID, DocumentPatch{})
	require.NoError(t, err)
	assert.Equal(t, writes, f.backend.writes())
}

func TestDeleteRemovesBlobThenRecord(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")

	require.NoError(t, f.svc.Delete(context.Background(), doc.ID))
	assert.Equal(t, []string{"blob://a"}, f.blobs.deleted)

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")

	require.NoError(t, f.svc.Delete(context.Background(), doc.ID))
	writes := f.backend.writes()

	require.NoError(t, f.svc.Delete(context.Background(), doc.ID))
	assert.Equal(t, writes, f.backend.writes(), "second delete writes nothing")
	assert.Len(t, f.blobs.deleted, 1, "second delete touches no blob")
}

func TestDeleteKeepsRecordWhenBlobDeleteFails(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	f.blobs.failDelete = errors.New("bucket offline")

	err := f.svc.Delete(context.Background(), doc.ID)
	require.Error(t, err)

	got, err := f.svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestDeleteKeepsSharedBlob(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "a.txt", "blob://shared", "u1")
	second := f.create(t, "a-copy.txt", "blob://shared", "u2")

	require.NoError(t, f.svc.Delete(context.Background(), first.ID))
	assert.Empty(t, f.blobs.deleted, "blob still referenced")

	require.NoError(t, f.svc.Delete(context.Background(), second.ID))
	assert.Equal(t, []string{"blob://shared"}, f.blobs.deleted)
}

func TestDeleteWithoutURLSkipsBlob(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "pasted", "", "u1")

	require.NoError(t, f.svc.Delete(context.Background(), doc.ID))
	assert.Empty(t, f.blobs.deleted)
}

func TestDeleteManyOneBatchOneWrite(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "a.txt", "blob://a", "u1")
	b := f.create(t, "b.txt", "blob://b", "u1")
	c := f.create(t, "c.txt", "blob://c", "u1")
	writes := f.backend.writes()

	require.NoError(t, f.svc.DeleteMany(context.Background(), []string{a.ID, b.ID, "unknown", a.ID}))

	require.Len(t, f.blobs.batches, 1)
	assert.ElementsMatch(t, []string{"blob://a", "blob://b"}, f.blobs.batches[0])
	assert.Equal(t, writes+1, f.backend.writes())

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, c.ID, docs[0].ID)
}

func TestDeleteManyUnknownIDsIsNoop(t *testing.T) {
	f := newFixture(t)
	f.create(t, "a.txt", "blob://a", "u1")
	writes := f.backend.writes()

	require.NoError(t, f.svc.DeleteMany(context.Background(), []string{"x", "y"}))
	assert.Empty(t, f.blobs.batches)
	assert.Equal(t, writes, f.backend.writes())
}

func TestDeleteManyBlobFailureKeepsRecords(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "a.txt", "blob://a", "u1")
	b := f.create(t, "b.txt", "blob://b", "u1")
	f.blobs.failDelete = errors.New("throttled")
	writes := f.backend.writes()

	err := f.svc.DeleteMany(context.Background(), []string{a.ID, b.ID})
	var partial *fault.PartialBatchError
	require.ErrorAs(t, err, &partial)
	assert.ElementsMatch(t, []string{"blob://a", "blob://b"}, partial.Attempted)
	assert.Equal(t, writes, f.backend.writes())

	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestUpstreamFailuresAreWrapped(t *testing.T) {
	f := newFixture(t)
	f.backend.failGet = errors.New("connection refused")

	_, err := f.svc.List(context.Background())
	var upstream *fault.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, fault.DependencyKV, upstream.Dependency)
	assert.Equal(t, CollectionKey, upstream.Key)
}
