package profile

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careerpilot-backend/internal/shared/server/middleware"
	"careerpilot-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the profile store.
type Handler struct {
	Repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches profile routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.get)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	prof, err := h.Repo.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "no profile yet; upload a resume first", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "lookup_failed", "failed to load profile", nil)
		return
	}
	respond.OK(c, prof)
}
