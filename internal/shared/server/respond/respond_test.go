package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorWritesStandardBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		Error(c, http.StatusUnprocessableEntity, "validation_error", "email is invalid", gin.H{"field": "email"})
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"error":{"code":"validation_error","message":"email is invalid","details":{"field":"email"}}}`, resp.Body.String())
}

func TestNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/x", NoContent)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())
}

func TestLogFieldsIncludeContextValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var fields map[string]any
	router.GET("/documents/:id", func(c *gin.Context) {
		c.Set("userId", "u-1")
		c.Set("documentId", c.Param("id"))
		fields = logFields(c, http.StatusNotFound, "not_found", "document not found")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/documents/d-9", nil))

	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "d-9", fields["document_id"])
	assert.Equal(t, "/documents/:id", fields["route"])
	assert.NotContains(t, fields, "request_id")
}
