package tailoring

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careerpilot-backend/internal/jobs"
	"careerpilot-backend/internal/shared/server/middleware"
	"careerpilot-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches tailoring routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/:id/tailor", h.tailor)
}

type tailorRequest struct {
	Job   jobs.Descriptor `json:"job"`
	Force bool            `json:"force"`
}

type tailorResponse struct {
	Result Result `json:"result"`
	Cached bool   `json:"cached"`
	Model  string `json:"model,omitempty"`
}

func (h *Handler) tailor(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")

	var req tailorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	preview, cached, aerr := h.Svc.Preview(c.Request.Context(), userID, resumeID, req.Job, req.Force)
	if aerr != nil {
		respond.AgentError(c, aerr)
		return
	}

	c.Set("resumeId", resumeID)
	respond.OK(c, tailorResponse{Result: preview.Result, Cached: cached, Model: preview.Model})
}
