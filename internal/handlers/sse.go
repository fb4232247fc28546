package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{log: log.With("handler", "SSEHandler"), hub: hub}
}

// GET /api/sse/stream?universe_id=
// Holds the connection open and streams every change notification for the
// given universe until the client goes away.
func (h *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "not_authenticated", nil)
		return
	}
	universeID, err := uuid.Parse(c.Query("universe_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	client := h.hub.NewSSEClient(rd.UserID)
	h.hub.AddChannel(client, sse.UniverseChannel(universeID))
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
