package blobs

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"readify-backend/internal/shared/server/respond"
	"readify-backend/internal/shared/storage/object"
)

// FilesPath is where stored objects are served when the public base URL points back at the API.
const FilesPath = "/files"

// Handler streams stored objects by key.
type Handler struct {
	Blobs *Coordinator
}

// NewHandler constructs a Handler.
func NewHandler(c *Coordinator) *Handler {
	return &Handler{Blobs: c}
}

// RegisterRoutes attaches the file route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(FilesPath+"/*key", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	key := strings.TrimLeft(c.Param("key"), "/")
	if key == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		return
	}
	rc, err := h.Blobs.Open(c.Request.Context(), h.Blobs.URL(key))
	if err != nil {
		if errors.Is(err, object.ErrNotFound) || errors.Is(err, ErrForeignURL) || errors.Is(err, object.ErrInvalidKey) {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		respond.Error(c, http.StatusBadGateway, "upstream_error", "object store unavailable", nil)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
