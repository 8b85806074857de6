// Package hub owns the websocket connection registry and the broadcast
// dispatcher. It knows nothing about game rules: inbound frames and
// disconnects are forwarded to a ConnHandler, outbound payloads are
// fanned out best-effort.
package hub

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Websocket keepalive constants shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// ConnHandler receives inbound traffic from registered clients. The
// session layer implements it; the indirection keeps hub free of any
// game dependency.
type ConnHandler interface {
	// HandleMessage processes one raw text frame from a client.
	HandleMessage(roomID, userID uint, raw []byte)

	// HandleDisconnect runs the player-left logic after a client's
	// socket closed. It is never called for sockets that were evicted
	// by a newer connection of the same user to the same room; an
	// eviction by a connection to a different room does trigger it for
	// the old room.
	HandleDisconnect(roomID, userID uint)
}

// Hub tracks at most one live client per user and the set of clients
// per room.
type Hub struct {
	mu      sync.RWMutex
	byUser  map[uint]*Client
	rooms   map[uint]map[uint]*Client
	handler ConnHandler
}

// NewHub creates an empty Hub. SetHandler must be called before the
// first Admit.
func NewHub() *Hub {
	return &Hub{
		byUser: make(map[uint]*Client),
		rooms:  make(map[uint]map[uint]*Client),
	}
}

// SetHandler wires the inbound traffic consumer. Done once at startup;
// hub and session construct independently, then this closes the loop.
func (h *Hub) SetHandler(handler ConnHandler) {
	if handler == nil {
		panic("ConnHandler cannot be nil for Hub")
	}
	h.handler = handler
}

// Admit registers a client. A prior live socket of the same user is
// force-closed first; its teardown will find itself unregistered and
// skip the player-left logic, so a same-room reconnect never
// masquerades as a departure. A socket evicted from a different room
// is a real departure from that room, and its disconnect handling runs
// here because the evicted pump will not run it.
func (h *Hub) Admit(c *Client) {
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": c.roomID,
		"user_id": c.userID,
		"action":  "admit",
	})

	h.mu.Lock()
	old := h.byUser[c.userID]
	if old != nil {
		h.detachLocked(old)
	}
	h.byUser[c.userID] = c
	if _, ok := h.rooms[c.roomID]; !ok {
		h.rooms[c.roomID] = make(map[uint]*Client)
	}
	h.rooms[c.roomID][c.userID] = c
	h.mu.Unlock()

	if old != nil {
		logCtx.WithField("old_room_id", old.roomID).Info("Evicting stale connection for reconnecting user")
		old.Close()
		if old.roomID != c.roomID && h.handler != nil {
			h.handler.HandleDisconnect(old.roomID, old.userID)
		}
	}
	logCtx.Info("Client admitted")
}

// detachLocked removes a client from both maps. Caller holds h.mu.
func (h *Hub) detachLocked(c *Client) {
	delete(h.byUser, c.userID)
	if roomClients, ok := h.rooms[c.roomID]; ok {
		delete(roomClients, c.userID)
		if len(roomClients) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
}

// drop is called by a client's read pump on exit. Only the currently
// registered client for the user triggers disconnect handling; an
// evicted predecessor just goes away quietly.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	registered := h.byUser[c.userID] == c
	if registered {
		h.detachLocked(c)
	}
	h.mu.Unlock()

	c.closeSend()
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": c.roomID,
		"user_id": c.userID,
		"action":  "drop",
	})
	if !registered {
		logCtx.Debug("Stale client dropped without disconnect handling")
		return
	}
	logCtx.Info("Client dropped")
	if h.handler != nil {
		h.handler.HandleDisconnect(c.roomID, c.userID)
	}
}

// forward hands an inbound frame to the handler.
func (h *Hub) forward(c *Client, raw []byte) {
	if h.handler != nil {
		h.handler.HandleMessage(c.roomID, c.userID, raw)
	}
}

// ToRoom sends a payload to every client in the room, best effort.
func (h *Hub) ToRoom(roomID uint, payload []byte) {
	h.ToRoomExcept(roomID, 0, payload)
}

// ToRoomExcept sends a payload to every client in the room except one
// user. A full send buffer drops the payload for that client only.
func (h *Hub) ToRoomExcept(roomID uint, exceptUserID uint, payload []byte) {
	h.mu.RLock()
	roomClients := h.rooms[roomID]
	targets := make([]*Client, 0, len(roomClients))
	for userID, c := range roomClients {
		if userID == exceptUserID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.trySend(payload) {
			logrus.WithFields(logrus.Fields{
				"room_id":          roomID,
				"receiver_user_id": c.userID,
			}).Warn("Client send buffer full during broadcast, dropping message")
		}
	}
}

// ToUser sends a payload to a single user, best effort.
func (h *Hub) ToUser(userID uint, payload []byte) {
	h.mu.RLock()
	c := h.byUser[userID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	if !c.trySend(payload) {
		logrus.WithFields(logrus.Fields{
			"receiver_user_id": userID,
		}).Warn("Client send buffer full, dropping message")
	}
}

// CloseUser force-closes a user's socket, if any.
func (h *Hub) CloseUser(userID uint) {
	h.mu.RLock()
	c := h.byUser[userID]
	h.mu.RUnlock()
	if c != nil {
		c.Close()
	}
}

// RoomClientCount returns how many sockets a room currently has.
func (h *Hub) RoomClientCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Shutdown force-closes every client. Their pumps run the usual
// teardown path.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.byUser))
	for _, c := range h.byUser {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Close()
	}
}
