package speech

import (
	"github.com/gin-gonic/gin"

	"readify-backend/internal/shared/server/respond"
)

// Handler exposes the voice catalogue.
type Handler struct {
	Dispatcher *Dispatcher
}

// NewHandler constructs a Handler.
func NewHandler(d *Dispatcher) *Handler {
	return &Handler{Dispatcher: d}
}

// RegisterRoutes attaches speech routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/voices", h.voices)
}

func (h *Handler) voices(c *gin.Context) {
	respond.OK(c, gin.H{
		"default": DefaultVoice,
		"groups":  h.Dispatcher.Voices(),
	})
}
