package documents

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readify-backend/internal/shared/server/middleware"
	"readify-backend/internal/speech"
)

func newTestRouter(t *testing.T, f *fixture, sp Synthesizer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc, &Ingestor{Docs: f.svc, Blobs: f.blobs}, &Narrator{Docs: f.svc, Speech: sp}, 1<<20)
	r := gin.New()
	api := r.Group("/api/v1", middleware.Identity())
	h.RegisterRoutes(api)
	return r
}

func doRequest(r http.Handler, req *http.Request, user, role string) *httptest.ResponseRecorder {
	if user != "" {
		req.Header.Set("X-User-Id", user)
		req.Header.Set("X-User-Email", user+"@example.com")
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func multipartUpload(t *testing.T, name, contentType, body string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadAndList(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f, &fakeSpeech{})

	resp := doRequest(r, multipartUpload(t, "hello.txt", "text/plain", "hello world"), "u1", "User")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created DocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "hello world", created.Content)
	assert.Equal(t, "u1@example.com", created.OwnerEmail)

	resp = doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil), "u1", "User")
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []DocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	resp = doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil), "u2", "User")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestUploadUnsupportedType(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f, &fakeSpeech{})

	resp := doRequest(r, multipartUpload(t, "pic.png", "image/png", "x"), "u1", "User")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Code)
	assert.Contains(t, resp.Body.String(), "unsupported_format")
}

func TestUploadRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(t, f, &fakeSpeech{})

	resp := doRequest(r, multipartUpload(t, "a.txt", "text/plain", "x"), "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetHidesOtherOwnersDocuments(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	r := newTestRouter(t, f, &fakeSpeech{})

	resp := doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID, nil), "u2", "User")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doRequest(r, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID, nil), "admin-1", "Admin")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestDeleteEndpoint(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	r := newTestRouter(t, f, &fakeSpeech{})

	resp := doRequest(r, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+doc.ID, nil), "u1", "User")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, []string{"blob://a"}, f.blobs.deleted)
}

func TestBulkDeleteOnlyTouchesOwnDocuments(t *testing.T) {
	f := newFixture(t)
	mine := f.create(t, "a.txt", "blob://a", "u1")
	theirs := f.create(t, "b.txt", "blob://b", "u2")
	r := newTestRouter(t, f, &fakeSpeech{})

	body := strings.NewReader(`{"ids":["` + mine.ID + `","` + theirs.ID + `"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/bulk-delete", body)
	req.Header.Set("Content-Type", "application/json")
	resp := doRequest(r, req, "u1", "User")
	require.Equal(t, http.StatusNoContent, resp.Code)

	require.Len(t, f.blobs.batches, 1)
	assert.Equal(t, []string{"blob://a"}, f.blobs.batches[0])
	_, err := f.svc.Get(req.Context(), theirs.ID)
	assert.NoError(t, err)
}

func TestNarrateEndpoint(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	sp := &fakeSpeech{}
	r := newTestRouter(t, f, sp)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/audio", strings.NewReader(`{"voice":"joanna"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := doRequest(r, req, "u1", "User")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got DocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "data:audio/mpeg;base64,bXAz", got.AudioRef)
	assert.Equal(t, "joanna", sp.voice)
}

func TestNarrateUnsupportedVoice(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, "a.txt", "blob://a", "u1")
	r := newTestRouter(t, f, &fakeSpeech{err: &speech.UnsupportedVoiceError{Voice: "robot"}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/audio", strings.NewReader(`{"voice":"robot"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := doRequest(r, req, "u1", "User")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), "robot")
}
