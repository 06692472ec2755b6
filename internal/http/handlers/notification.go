package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/http/response"
	"github.com/yungbote/aletheia-backend/internal/realtime"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type NotificationHandler struct {
	notes services.NotificationService
	hub   *realtime.Hub
}

func NewNotificationHandler(notes services.NotificationService, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{notes: notes, hub: hub}
}

// GET /api/notifications/:userId
func (h *NotificationHandler) List(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId", "invalid_user_id")
	if !ok {
		return
	}
	if err := services.RequireSelf(me, userID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	list, err := h.notes.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, nonNil(list))
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_notification_id")
	if !ok {
		return
	}
	if err := h.notes.MarkRead(c.Request.Context(), me, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// GET /api/notifications/stream
// Browsers cannot set headers on EventSource, so the token may ride in ?token.
func (h *NotificationHandler) Stream(c *gin.Context) {
	me, ok := actor(c)
	if !ok {
		return
	}
	if h.hub == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "stream_unavailable", errors.New("live stream disabled"))
		return
	}
	client := h.hub.NewClient(me)
	h.hub.Subscribe(client, realtime.UserChannel(me))
	defer h.hub.CloseClient(client)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
