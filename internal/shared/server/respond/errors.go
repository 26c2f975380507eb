package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careerpilot-backend/internal/agent"
	"careerpilot-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Category string      `json:"category,omitempty"`
	Details  interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

const retryLaterMessage = "something went wrong, please try again later"

// AgentError maps an operation failure onto an HTTP response. Timeouts read
// as 504 so clients can tell a slow model from a broken request. Validation
// and ownership failures carry their message to the caller; everything else
// gets a generic body, with the real message kept in the server log.
func AgentError(c *gin.Context, aerr *agent.Error) {
	status := http.StatusInternalServerError
	message := retryLaterMessage
	var details any
	switch aerr.Category {
	case agent.CategoryValidation:
		status = http.StatusUnprocessableEntity
		message = aerr.Message
		details = aerr.Details
	case agent.CategoryNotFound:
		status = http.StatusNotFound
		message = aerr.Message
	case agent.CategoryForbidden:
		status = http.StatusForbidden
		message = aerr.Message
	case agent.CategoryTimeout:
		status = http.StatusGatewayTimeout
	case agent.CategoryNetwork:
		status = http.StatusBadGateway
	case agent.CategoryParsing:
		status = http.StatusBadGateway
	}

	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"code":       aerr.Code,
		"category":   string(aerr.Category),
		"message":    aerr.Message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:     aerr.Code,
			Message:  message,
			Category: string(aerr.Category),
			Details:  details,
		},
	})
}
