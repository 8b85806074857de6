package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one websocket connection registered with the Hub.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	roomID   uint
	userID   uint
	username string

	send          chan []byte
	closeSendOnce sync.Once
}

// NewClient wraps an upgraded websocket connection.
func NewClient(hub *Hub, conn *websocket.Conn, roomID, userID uint, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		roomID:   roomID,
		userID:   userID,
		username: username,
		send:     make(chan []byte, 256),
	}
}

// RoomID returns the room this client is subscribed to.
func (c *Client) RoomID() uint { return c.roomID }

// UserID returns the authenticated user behind this client.
func (c *Client) UserID() uint { return c.userID }

// Username returns the authenticated username behind this client.
func (c *Client) Username() string { return c.username }

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// Close force-closes the underlying connection; both pumps exit.
func (c *Client) Close() {
	_ = c.conn.Close()
}

// trySend queues a payload without blocking. False means the buffer
// was full and the payload was dropped.
func (c *Client) trySend(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeSendOnce.Do(func() { close(c.send) })
}

// readPump pumps frames from the socket into the hub's handler. On
// exit it unregisters the client, which runs disconnect handling only
// if this client is still the registered one.
func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.hub.forward(c, message)
	}
}

// writePump pumps payloads from the send channel onto the socket and
// keeps the connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).
					WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
