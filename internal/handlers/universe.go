package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/services"
)

type UniverseHandler struct {
	svc services.UniverseService
}

func NewUniverseHandler(svc services.UniverseService) *UniverseHandler {
	return &UniverseHandler{svc: svc}
}

// POST /api/universes
func (h *UniverseHandler) Create(c *gin.Context) {
	var input services.CreateUniverseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	universe, err := h.svc.Create(c.Request.Context(), nil, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"universe": universe})
}

// GET /api/universes
func (h *UniverseHandler) List(c *gin.Context) {
	universes, err := h.svc.ListOwned(c.Request.Context(), nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"universes": universes})
}

// GET /api/universes/:id
func (h *UniverseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	universe, err := h.svc.Get(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"universe": universe})
}

// PATCH /api/universes/:id
func (h *UniverseHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input services.UpdateUniverseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	universe, err := h.svc.Update(c.Request.Context(), nil, id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"universe": universe})
}

// DELETE /api/universes/:id
func (h *UniverseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
