package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/services"
)

type RelationshipHandler struct {
	svc services.RelationshipService
}

func NewRelationshipHandler(svc services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{svc: svc}
}

// POST /api/relationships
func (h *RelationshipHandler) Create(c *gin.Context) {
	var input services.CreateRelationshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	relationship, err := h.svc.Create(c.Request.Context(), nil, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"relationship": relationship})
}

// DELETE /api/relationships/:id
func (h *RelationshipHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/content/:id/children/order
func (h *RelationshipHandler) ReorderChildren(c *gin.Context) {
	parentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body struct {
		OrderedChildIDs []uuid.UUID `json:"ordered_child_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.svc.ReorderChildren(c.Request.Context(), parentID, body.OrderedChildIDs); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
