// Package websocket upgrades authenticated HTTP requests into game
// sockets and admits them into their room session.
package websocket

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"color-clash/internal/hub"
	"color-clash/internal/protocol"
	"color-clash/internal/repository"
	"color-clash/internal/session"
)

// WebSocketHandler handles the /ws/room/:roomId endpoint.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	store    *session.Store
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(h *hub.Hub, store *session.Store) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if store == nil {
		panic("session Store cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict origins once the frontend host is fixed.
			return true
		},
	}

	return &WebSocketHandler{
		upgrader: upgrader,
		hub:      h,
		store:    store,
	}
}

// HandleConnection upgrades the request and joins the user to the room.
// URL format: /ws/room/{roomId}. Admission order matters: the session
// is hydrated before the client is registered, so a missing room row is
// a hard error delivered over the fresh socket, and no session is ever
// fabricated for an unknown room.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithField("component", "ws_handler")

	userIDAny, exists := c.Get("user_id")
	if !exists {
		logCtx.Warn("WS Handler: user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logCtx.Error("WS Handler: user ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx = logCtx.WithField("user_id", userID)

	username := ""
	if v, ok := c.Get("username"); ok {
		username, _ = v.(string)
	}
	if username == "" {
		username = fmt.Sprintf("player%d", userID)
	}

	roomIDStr := c.Param("roomId")
	roomID64, err := strconv.ParseUint(roomIDStr, 10, 32)
	if err != nil {
		logCtx.WithError(err).Warnf("WS Handler: invalid room ID format: %s", roomIDStr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}
	roomID := uint(roomID64)
	logCtx = logCtx.WithField("room_id", roomID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own HTTP error response.
		logCtx.WithError(err).Error("WS Handler: failed to upgrade connection")
		return
	}

	sess, err := h.store.GetOrHydrate(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("WS Handler: connect to unknown room rejected")
			h.rejectUpgraded(conn, "room not found")
		} else {
			logCtx.WithError(err).Error("WS Handler: failed to hydrate room session")
			h.rejectUpgraded(conn, "failed to load room")
		}
		return
	}

	client := hub.NewClient(h.hub, conn, roomID, userID, username)
	h.hub.Admit(client)
	client.Run()

	if payload, err := protocol.Encode(protocol.NewConnected(userID, username, roomID)); err == nil {
		h.hub.ToUser(userID, payload)
	} else {
		logCtx.WithError(err).Error("WS Handler: failed to encode connected ack")
	}

	sess.Connect(userID, username)
	logCtx.Info("WS Handler: client admitted to room")
}

// rejectUpgraded delivers an error frame on an already-upgraded socket
// and closes it. The client never gets a join acknowledgment.
func (h *WebSocketHandler) rejectUpgraded(conn *websocket.Conn, message string) {
	if payload, err := protocol.Encode(protocol.NewError(message)); err == nil {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
	conn.Close()
}
