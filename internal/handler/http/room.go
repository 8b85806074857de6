package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"color-clash/internal/domain"
	"color-clash/internal/service"
)

// RoomHandler serves room management endpoints.
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateRoomRequest is the room creation payload. Zero values fall
// back to server defaults.
type CreateRoomRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=64"`
	MaxPlayers    int    `json:"maxPlayers"`
	CanvasWidth   int    `json:"canvasWidth"`
	CanvasHeight  int    `json:"canvasHeight"`
	GameTimeLimit int    `json:"gameTimeLimit"`
	Password      string `json:"password"`
}

// roomView is the API shape of a room; password hashes never leave the
// server.
type roomView struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	OwnerID       uint   `json:"ownerId"`
	MaxPlayers    int    `json:"maxPlayers"`
	CanvasWidth   int    `json:"canvasWidth"`
	CanvasHeight  int    `json:"canvasHeight"`
	GameTimeLimit int    `json:"gameTimeLimit"`
	Private       bool   `json:"private"`
	Status        string `json:"status"`
}

func viewOf(room *domain.Room) roomView {
	return roomView{
		ID:            room.ID,
		Name:          room.Name,
		OwnerID:       room.OwnerID,
		MaxPlayers:    room.MaxPlayers,
		CanvasWidth:   room.CanvasWidth,
		CanvasHeight:  room.CanvasHeight,
		GameTimeLimit: room.GameTimeLimit,
		Private:       room.Private,
		Status:        room.Status,
	}
}

// CreateRoom handles POST /api/rooms.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateRoom: invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, service.CreateRoomInput{
		Name:          req.Name,
		MaxPlayers:    req.MaxPlayers,
		CanvasWidth:   req.CanvasWidth,
		CanvasHeight:  req.CanvasHeight,
		GameTimeLimit: req.GameTimeLimit,
		Password:      req.Password,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, gin.H{"room": viewOf(room)})
}

// JoinRoomRequest is the join payload; the password is required only
// for private rooms.
type JoinRoomRequest struct {
	RoomID   uint   `json:"roomId" binding:"required"`
	Password string `json:"password"`
}

// JoinRoom handles POST /api/rooms/join: it validates entry (password
// gate) and hands back the room; the client then opens the websocket.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: roomId required"})
		return
	}

	room, err := h.roomService.JoinRoom(c.Request.Context(), userID, req.RoomID, req.Password)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"room": viewOf(room)})
}

// GetRoom handles GET /api/rooms/:roomId.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("roomId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}
	room, err := h.roomService.GetRoom(c.Request.Context(), uint(roomID))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"room": viewOf(room)})
}

// ListRooms handles GET /api/rooms: the public room directory.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rooms, err := h.roomService.ListPublicRooms(c.Request.Context(), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	views := make([]roomView, 0, len(rooms))
	for i := range rooms {
		views = append(views, viewOf(&rooms[i]))
	}
	SuccessResponse(c, http.StatusOK, gin.H{"rooms": views})
}

// authedUserID pulls the authenticated user id set by the auth
// middleware.
func authedUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	userID, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return 0, false
	}
	return userID, true
}
