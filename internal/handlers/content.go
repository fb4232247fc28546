package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/services"
)

type ContentHandler struct {
	svc          services.ContentService
	hierarchySvc services.HierarchyService
}

func NewContentHandler(svc services.ContentService, hierarchySvc services.HierarchyService) *ContentHandler {
	return &ContentHandler{svc: svc, hierarchySvc: hierarchySvc}
}

// POST /api/content
func (h *ContentHandler) Create(c *gin.Context) {
	var input services.CreateContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	content, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"content": content})
}

// GET /api/content/:id
func (h *ContentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	content, err := h.svc.Get(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"content": content})
}

// GET /api/universes/:id/content
func (h *ContentHandler) ListForUniverse(c *gin.Context) {
	universeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	content, err := h.svc.ListByUniverse(c.Request.Context(), nil, universeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"content": content})
}

// GET /api/universes/:id/tree
func (h *ContentHandler) Tree(c *gin.Context) {
	universeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	tree, err := h.hierarchySvc.UniverseTree(c.Request.Context(), nil, universeID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tree": tree})
}

// GET /api/universes/:id/children?level_id=
// Without level_id this is the top level: forest roots plus unorganised content.
func (h *ContentHandler) Children(c *gin.Context) {
	universeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	levelID := uuid.Nil
	if raw := c.Query("level_id"); raw != "" {
		levelID, err = uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	children, err := h.hierarchySvc.ChildrenAt(c.Request.Context(), nil, universeID, levelID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"children": children})
}

// GET /api/universes/:id/content/:contentId/path
func (h *ContentHandler) AncestorPath(c *gin.Context) {
	universeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	contentID, err := uuid.Parse(c.Param("contentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	path, err := h.hierarchySvc.AncestorPath(c.Request.Context(), nil, universeID, contentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"path": path})
}

// PATCH /api/content/:id
func (h *ContentHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input services.UpdateContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	content, err := h.svc.Update(c.Request.Context(), nil, id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"content": content})
}

// DELETE /api/content/:id
func (h *ContentHandler) Delete(c *gin.Context) {
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
