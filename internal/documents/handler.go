package documents

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"readify-backend/internal/extract"
	"readify-backend/internal/shared/fault"
	"readify-backend/internal/shared/server/middleware"
	"readify-backend/internal/shared/server/respond"
	"readify-backend/internal/shared/storage/kv"
	"readify-backend/internal/shared/util"
	"readify-backend/internal/speech"
)

const defaultMaxUploadSize = 20 << 20

// Handler wires HTTP handlers to the document flows.
type Handler struct {
	Svc           *Service
	Ingestor      *Ingestor
	Narrator      *Narrator
	MaxUploadSize int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, ingestor *Ingestor, narrator *Narrator, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &Handler{Svc: svc, Ingestor: ingestor, Narrator: narrator, MaxUploadSize: maxUploadSize}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents", h.upload)
	rg.POST("/documents/bulk-delete", h.bulkDelete)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
	rg.POST("/documents/:id/audio", h.narrate)
}

func (h *Handler) list(c *gin.Context) {
	var (
		docs []Document
		err  error
	)
	if middleware.IsAdmin(c) {
		docs, err = h.Svc.List(c.Request.Context())
	} else {
		docs, err = h.Svc.ListByOwner(c.Request.Context(), middleware.UserIDFromContext(c))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponses(docs))
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", gin.H{"limitBytes": h.MaxUploadSize})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	doc, err := h.Ingestor.Ingest(c.Request.Context(), Upload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		OwnerID:     middleware.UserIDFromContext(c),
		OwnerEmail:  middleware.UserEmailFromContext(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	doc, ok := h.visible(c)
	if !ok {
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	doc, ok := h.visible(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), doc.ID); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) bulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ids is required", nil)
		return
	}

	ids := req.IDs
	if !middleware.IsAdmin(c) {
		owned, err := h.Svc.ListByOwner(c.Request.Context(), middleware.UserIDFromContext(c))
		if err != nil {
			writeError(c, err)
			return
		}
		mine := make(map[string]struct{}, len(owned))
		for _, doc := range owned {
			mine[doc.ID] = struct{}{}
		}
		ids = ids[:0:0]
		for _, id := range req.IDs {
			if _, ok := mine[id]; ok {
				ids = append(ids, id)
			}
		}
	}

	if err := h.Svc.DeleteMany(c.Request.Context(), ids); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) narrate(c *gin.Context) {
	doc, ok := h.visible(c)
	if !ok {
		return
	}
	var req narrateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	updated, err := h.Narrator.Narrate(c.Request.Context(), doc.ID, req.Voice)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(updated))
}

// visible loads the :id document and hides documents owned by someone else from non-admins.
func (h *Handler) visible(c *gin.Context) (Document, bool) {
	id := c.Param("id")
	c.Set("documentId", id)
	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err == nil && !middleware.IsAdmin(c) && doc.OwnerID != middleware.UserIDFromContext(c) {
		err = ErrNotFound
	}
	if err != nil {
		writeError(c, err)
		return Document{}, false
	}
	return doc, true
}

func writeError(c *gin.Context, err error) {
	var (
		partial  *fault.PartialBatchError
		upstream *fault.UpstreamError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, util.ErrInvalidFileName):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
	case errors.Is(err, extract.ErrUnsupportedFormat):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_format", err.Error(), nil)
	case errors.Is(err, extract.ErrExtractionFailed):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "could not read text from file", nil)
	case errors.Is(err, speech.ErrUnsupportedVoice):
		respond.Error(c, http.StatusUnprocessableEntity, "unsupported_voice", err.Error(), nil)
	case errors.Is(err, speech.ErrEmptyText):
		respond.Error(c, http.StatusUnprocessableEntity, "empty_document", "document has no text to narrate", nil)
	case errors.Is(err, speech.ErrSynthesisFailed):
		respond.Error(c, http.StatusBadGateway, "synthesis_failed", "speech synthesis failed", nil)
	case errors.Is(err, kv.ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "document collection changed concurrently, retry", nil)
	case errors.As(err, &partial):
		respond.Error(c, http.StatusBadGateway, "partial_batch", "bulk delete failed, retry the request", gin.H{"attempted": partial.Attempted})
	case errors.As(err, &upstream):
		respond.Error(c, http.StatusBadGateway, "upstream_error", upstream.Dependency+" unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
