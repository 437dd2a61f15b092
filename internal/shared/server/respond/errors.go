package respond

import (
	"github.com/gin-gonic/gin"

	"readify-backend/internal/shared/telemetry"
)

// ErrorBody is the JSON error object every failing endpoint returns.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// contextFields are copied into the error log line when handlers set them.
var contextFields = map[string]string{
	"requestId":  "request_id",
	"userId":     "user_id",
	"documentId": "document_id",
}

// Error logs the failure and aborts with {"error": {...}}. Server errors are logged at
// error level, client errors at info.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := logFields(c, status, code, message)
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Info("http.client_error", fields)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

func logFields(c *gin.Context, status int, code, message string) map[string]any {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
	}
	if route := c.FullPath(); route != "" {
		fields["route"] = route
	}
	for key, name := range contextFields {
		if v := c.GetString(key); v != "" {
			fields[name] = v
		}
	}
	return fields
}
