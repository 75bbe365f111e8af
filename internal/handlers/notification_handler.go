package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/chronos-ua/chronos-backend/internal/channels"
	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/chronos-ua/chronos-backend/internal/notify"
	"github.com/chronos-ua/chronos-backend/internal/repository"
	"github.com/chronos-ua/chronos-backend/utils"
	"github.com/gin-gonic/gin"
)

// NotificationHandler owns the realtime endpoints: the SSE stream, the
// WebSocket upgrade and the web push subscription management.
type NotificationHandler struct {
	hub        *channels.SocketHub
	sse        *channels.SSEBroker
	push       *channels.WebPushSender
	dispatcher *notify.Dispatcher
	users      repository.IUserRepository
}

func NewNotificationHandler(
	hub *channels.SocketHub,
	sse *channels.SSEBroker,
	push *channels.WebPushSender,
	dispatcher *notify.Dispatcher,
	users repository.IUserRepository,
) *NotificationHandler {
	return &NotificationHandler{
		hub:        hub,
		sse:        sse,
		push:       push,
		dispatcher: dispatcher,
		users:      users,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	r.GET("/notifications/vapid-public-key", h.VapidPublicKey)

	protected := r.Group("", auth)
	protected.GET("/notifications/subscribe", h.Subscribe)
	protected.GET("/ws", h.WebSocket)
	protected.POST("/notifications/push/subscribe", h.SubscribePush)
	protected.DELETE("/notifications/push/unsubscribe", h.UnsubscribePush)
	protected.POST("/notifications/test/send", h.SendTest)
}

// Subscribe opens a server-sent-event stream carrying the caller's
// notifications. The stream lives until the client disconnects.
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	userID := GetUserID(c)
	channel := notify.UserChannel(userID)

	stream := h.sse.Subscribe(channel)
	h.sse.AddSubscription(userID, channel)
	defer func() {
		h.sse.RemoveSubscription(userID, channel)
		h.sse.Unsubscribe(channel, stream)
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	slog.Debug("SSE stream opened", "user", userID)

	c.Stream(func(w io.Writer) bool {
		select {
		case payload, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent("notification", payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	slog.Debug("SSE stream closed", "user", userID)
}

// WebSocket upgrades the connection and hands it to the hub.
func (h *NotificationHandler) WebSocket(c *gin.Context) {
	userID := GetUserID(c)
	if err := h.hub.HandleConnection(c.Writer, c.Request, userID); err != nil {
		slog.Error("websocket upgrade failed", "user", userID, "error", err)
	}
}

// VapidPublicKey returns the key browsers need to create push subscriptions.
func (h *NotificationHandler) VapidPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{
		"publicKey": h.push.PublicKey(),
	}))
}

// SubscribePush stores a browser push subscription for the caller. Adding
// the same endpoint twice is a no-op.
func (h *NotificationHandler) SubscribePush(c *gin.Context) {
	var sub models.PushSubscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	userID := GetUserID(c)
	if err := h.users.AddPushSubscription(c.Request.Context(), userID, sub); err != nil {
		slog.Error("failed to store push subscription", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("SUBSCRIBE_FAILED", "failed to store push subscription"))
		return
	}

	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(gin.H{"subscribed": true}))
}

func (h *NotificationHandler) UnsubscribePush(c *gin.Context) {
	var req models.UnsubscribePushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	userID := GetUserID(c)
	if err := h.users.RemovePushSubscription(c.Request.Context(), userID, req.Endpoint); err != nil {
		slog.Error("failed to remove push subscription", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("UNSUBSCRIBE_FAILED", "failed to remove push subscription"))
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"unsubscribed": true}))
}

// SendTest dispatches a notification to the caller through the regular
// cascade so clients can verify their channel setup end to end.
func (h *NotificationHandler) SendTest(c *gin.Context) {
	var req models.SendTestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	if req.Title == "" {
		req.Title = "Test notification"
	}
	if req.Message == "" {
		req.Message = "If you can read this, notifications work."
	}

	userID := GetUserID(c)
	sent := h.dispatcher.Send(c.Request.Context(), userID, notify.Payload{
		Title:   req.Title,
		Message: req.Message,
		URL:     req.URL,
	}, notify.SkipFlags{})

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"delivered": sent}))
}
