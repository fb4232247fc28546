package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/services"
)

type UserHandler struct {
	svc services.UserService
}

func NewUserHandler(svc services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.svc.GetSelf(c.Request.Context(), nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}
