package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"readify-backend/internal/shared/fault"
	"readify-backend/internal/shared/server/middleware"
	"readify-backend/internal/shared/server/respond"
	"readify-backend/internal/shared/storage/kv"
)

// Handler wires HTTP handlers to the user service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches user routes to a group behind the identity middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := middleware.RequireRole(middleware.RoleAdmin)
	rg.GET("/users", admin, h.list)
	rg.POST("/users", admin, h.create)
	rg.GET("/users/:id", h.get)
	rg.PATCH("/users/:id", h.update)
	rg.DELETE("/users/:id", admin, h.delete)
	rg.POST("/users/:id/password", h.changePassword)
}

// RegisterPublicRoutes attaches routes that run before any identity exists.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/verify", h.verify)
}

func (h *Handler) list(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, users)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, user)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, user)
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	var in UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if !middleware.IsAdmin(c) {
		if in.Role != nil {
			respond.Error(c, http.StatusForbidden, "forbidden", "only admins can change roles", nil)
			return
		}
		if in.Password != nil {
			respond.Error(c, http.StatusForbidden, "forbidden", "use POST /users/:id/password to change your password", nil)
			return
		}
	}
	user, err := h.Svc.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, user)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.DeleteAs(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) changePassword(c *gin.Context) {
	id := c.Param("id")
	if id != middleware.UserIDFromContext(c) {
		respond.Error(c, http.StatusForbidden, "forbidden", "can only change your own password", nil)
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "oldPassword and newPassword are required", nil)
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "email and password are required", nil)
		return
	}
	user, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, user)
}

func selfOrAdmin(c *gin.Context, id string) bool {
	if middleware.IsAdmin(c) || id == middleware.UserIDFromContext(c) {
		return true
	}
	respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
	return false
}

func writeError(c *gin.Context, err error) {
	var (
		invalid  *ValidationError
		upstream *fault.UpstreamError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", ErrInvalidCredentials.Error(), nil)
	case errors.As(err, &invalid):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid user input", invalid.Fields)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrEmailTaken):
		respond.Error(c, http.StatusConflict, "email_taken", err.Error(), nil)
	case errors.Is(err, ErrSelfDelete):
		respond.Error(c, http.StatusForbidden, "self_delete", err.Error(), nil)
	case errors.Is(err, kv.ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "user collection changed concurrently, retry", nil)
	case errors.As(err, &upstream):
		respond.Error(c, http.StatusBadGateway, "upstream_error", upstream.Dependency+" unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
