package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"careerpilot-backend/internal/agent"
)

func performAgentError(t *testing.T, aerr *agent.Error) (int, ErrorBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/resumes/resume-1/analyze", nil)

	AgentError(c, aerr)

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return w.Code, body.Error
}

func TestAgentErrorHidesInternalDetail(t *testing.T) {
	detail := `pq: relation "analyses" does not exist`
	status, body := performAgentError(t, agent.InternalError("analysis_lookup_failed", detail))

	if status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", status)
	}
	if body.Message != retryLaterMessage {
		t.Fatalf("internal detail leaked to client: %q", body.Message)
	}
	if body.Details != nil {
		t.Fatalf("internal details leaked to client: %v", body.Details)
	}
	if body.Code != "analysis_lookup_failed" {
		t.Fatalf("error code must survive, got %q", body.Code)
	}
}

func TestAgentErrorHidesProviderBodies(t *testing.T) {
	aerr := &agent.Error{
		Code:      "llm_http_error",
		Message:   "status 500: {\"error\":{\"message\":\"model overloaded, org org-abc123\"}}",
		Category:  agent.CategoryNetwork,
		Retryable: true,
	}
	status, body := performAgentError(t, aerr)

	if status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", status)
	}
	if strings.Contains(body.Message, "org-abc123") || body.Message != retryLaterMessage {
		t.Fatalf("provider response leaked to client: %q", body.Message)
	}
}

func TestAgentErrorSurfacesValidationMessage(t *testing.T) {
	status, body := performAgentError(t, agent.ValidationError(
		"job_description_too_short", "job description must be at least 50 characters"))

	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", status)
	}
	if body.Message != "job description must be at least 50 characters" {
		t.Fatalf("validation message must reach the caller, got %q", body.Message)
	}
}
