package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/services"
)

type ProgressHandler struct {
	svc services.ProgressService
}

func NewProgressHandler(svc services.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

// PUT /api/content/:id/progress
func (h *ProgressHandler) SetProgress(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body struct {
		Progress int `json:"progress"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	update, err := h.svc.SetLeafProgress(c.Request.Context(), contentID, body.Progress)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"update": update})
}

// GET /api/content/:id/progress
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	value, err := h.svc.NodeAggregatedProgress(c.Request.Context(), nil, contentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": value})
}

// GET /api/universes/:id/progress
func (h *ProgressHandler) UniverseProgress(c *gin.Context) {
	universeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	rollup, err := h.svc.RecomputeUniverseProgress(c.Request.Context(), nil, universeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"universe_id": universeID, "progress": rollup})
}

// GET /api/progress
func (h *ProgressHandler) RollupAll(c *gin.Context) {
	rollups, err := h.svc.RollupAll(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"rollups": rollups})
}
