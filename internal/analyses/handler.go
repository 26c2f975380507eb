package analyses

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

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/:id/analyze", h.analyze)
}

type analyzeRequest struct {
	Job            jobs.Descriptor `json:"job"`
	TargetRole     string          `json:"targetRole"`
	TargetIndustry string          `json:"targetIndustry"`
}

type analyzeResponse struct {
	Result Analysis `json:"result"`
	Cached bool     `json:"cached"`
	Model  string   `json:"model,omitempty"`
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	record, cached, aerr := h.Svc.GetOrCompute(c.Request.Context(), userID, resumeID, req.Job, req.TargetRole, req.TargetIndustry)
	if aerr != nil {
		respond.AgentError(c, aerr)
		return
	}

	c.Set("resumeId", resumeID)
	respond.OK(c, analyzeResponse{Result: record.Result, Cached: cached, Model: record.Model})
}
