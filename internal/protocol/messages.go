// Package protocol defines the websocket message schema exchanged with
// game clients. Field names follow the client's camelCase convention.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Client message types.
const (
	TypeDraw      = "draw"
	TypeGameStart = "game-start"
	TypeGameChat  = "game-chat"
	TypePing      = "ping"
	TypeLeaveRoom = "leave-room"
)

// Server message types.
const (
	TypeConnected    = "connected"
	TypeRoomJoined   = "room-joined"
	TypePlayerJoined = "player-joined"
	TypePlayerLeft   = "player-left"
	TypeGameStarted  = "game-started"
	TypeDrawUpdate   = "draw-update"
	TypeScoreUpdate  = "score-update"
	TypeGameEnded    = "game-ended"
	TypeOwnerChanged = "owner-changed"
	TypePong         = "pong"
	TypeError        = "error"
)

// ErrUnknownType is returned by DecodeClient for unrecognized message types.
var ErrUnknownType = errors.New("protocol: unknown message type")

// DrawData is a single brush stroke sample.
type DrawData struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
	Size  int    `json:"size"`
}

// ClientMessage is implemented by every decoded client-to-server message.
type ClientMessage interface {
	clientMessage()
}

// Draw carries one brush stroke sample from a client.
type Draw struct {
	Data DrawData
}

// GameStart is the owner's request to start (or restart) the game.
type GameStart struct{}

// Chat is an in-game chat line. ID is an optional client-side
// correlation id echoed back on broadcast.
type Chat struct {
	Message string
	ID      string
}

// Ping is an application-level keepalive probe.
type Ping struct{}

// LeaveRoom is an explicit request to leave the room.
type LeaveRoom struct{}

func (Draw) clientMessage()      {}
func (GameStart) clientMessage() {}
func (Chat) clientMessage()      {}
func (Ping) clientMessage()      {}
func (LeaveRoom) clientMessage() {}

type clientEnvelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	ID      string          `json:"id"`
}

// DecodeClient parses a raw client frame into its typed message.
func DecodeClient(raw []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("protocol: malformed message: %w", err)
	}
	switch env.Type {
	case TypeDraw:
		var data DrawData
		if len(env.Data) == 0 {
			return nil, fmt.Errorf("protocol: draw message without data")
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("protocol: malformed draw data: %w", err)
		}
		return Draw{Data: data}, nil
	case TypeGameStart:
		return GameStart{}, nil
	case TypeGameChat:
		return Chat{Message: env.Message, ID: env.ID}, nil
	case TypePing:
		return Ping{}, nil
	case TypeLeaveRoom:
		return LeaveRoom{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// PlayerInfo is the client-visible view of a player.
type PlayerInfo struct {
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	Color     string `json:"color"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// RoomInfo is the client-visible view of a room.
type RoomInfo struct {
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

// GameStateInfo is the client-visible snapshot of a running game.
type GameStateInfo struct {
	Mode          string       `json:"mode"`
	IsActive      bool         `json:"isActive"`
	GameStartTime int64        `json:"gameStartTime"`
	GameEndTime   int64        `json:"gameEndTime"`
	GameTimeLimit int          `json:"gameTimeLimit"`
	Players       []PlayerInfo `json:"players"`
	Winner        *uint        `json:"winner"`
	Room          RoomInfo     `json:"room"`
}

// ScoreEntry is one row of a score broadcast.
type ScoreEntry struct {
	UserID uint `json:"userId"`
	Score  int  `json:"score"`
}

// Connected acknowledges a successful websocket admission.
type Connected struct {
	Type      string `json:"type"`
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	RoomID    uint   `json:"roomId"`
	Timestamp int64  `json:"timestamp"`
}

// RoomJoined delivers the full room view to a player who just joined.
type RoomJoined struct {
	Type    string       `json:"type"`
	Room    RoomInfo     `json:"room"`
	Players []PlayerInfo `json:"players"`
}

// PlayerJoined notifies the room of a new or returning player.
type PlayerJoined struct {
	Type   string     `json:"type"`
	Player PlayerInfo `json:"player"`
}

// PlayerLeft notifies the room of a departed player.
type PlayerLeft struct {
	Type   string `json:"type"`
	UserID uint   `json:"userId"`
}

// GameStarted announces the start of a game with the fresh state.
type GameStarted struct {
	Type      string        `json:"type"`
	GameState GameStateInfo `json:"gameState"`
}

// DrawUpdate relays one brush stroke sample to the rest of the room.
type DrawUpdate struct {
	Type   string   `json:"type"`
	Data   DrawData `json:"data"`
	UserID uint     `json:"userId"`
}

// ScoreUpdate broadcasts the recomputed scores after a stroke.
type ScoreUpdate struct {
	Type   string       `json:"type"`
	Scores []ScoreEntry `json:"scores"`
}

// GameEnded announces the end of a game with the final standings.
type GameEnded struct {
	Type        string       `json:"type"`
	Winner      *PlayerInfo  `json:"winner"`
	FinalScores []ScoreEntry `json:"finalScores"`
	Reason      string       `json:"reason,omitempty"`
}

// OwnerChanged announces ownership migration after the owner left.
type OwnerChanged struct {
	Type         string `json:"type"`
	NewOwnerID   uint   `json:"newOwnerId"`
	NewOwnerName string `json:"newOwnerName"`
}

// ChatBroadcast relays a chat line to the room.
type ChatBroadcast struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id,omitempty"`
}

// Pong answers an application-level ping.
type Pong struct {
	Type string `json:"type"`
}

// ErrorMessage reports a terminal protocol or admission error.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewConnected builds a connected ack stamped with the current time.
func NewConnected(userID uint, username string, roomID uint) Connected {
	return Connected{
		Type:      TypeConnected,
		UserID:    userID,
		Username:  username,
		RoomID:    roomID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewRoomJoined builds a room-joined message.
func NewRoomJoined(room RoomInfo, players []PlayerInfo) RoomJoined {
	return RoomJoined{Type: TypeRoomJoined, Room: room, Players: players}
}

// NewPlayerJoined builds a player-joined broadcast.
func NewPlayerJoined(player PlayerInfo) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, Player: player}
}

// NewPlayerLeft builds a player-left broadcast.
func NewPlayerLeft(userID uint) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, UserID: userID}
}

// NewGameStarted builds a game-started broadcast.
func NewGameStarted(state GameStateInfo) GameStarted {
	return GameStarted{Type: TypeGameStarted, GameState: state}
}

// NewDrawUpdate builds a draw-update broadcast.
func NewDrawUpdate(data DrawData, userID uint) DrawUpdate {
	return DrawUpdate{Type: TypeDrawUpdate, Data: data, UserID: userID}
}

// NewScoreUpdate builds a score-update broadcast.
func NewScoreUpdate(scores []ScoreEntry) ScoreUpdate {
	return ScoreUpdate{Type: TypeScoreUpdate, Scores: scores}
}

// NewGameEnded builds a game-ended broadcast.
func NewGameEnded(winner *PlayerInfo, finalScores []ScoreEntry, reason string) GameEnded {
	return GameEnded{Type: TypeGameEnded, Winner: winner, FinalScores: finalScores, Reason: reason}
}

// NewOwnerChanged builds an owner-changed broadcast.
func NewOwnerChanged(newOwnerID uint, newOwnerName string) OwnerChanged {
	return OwnerChanged{Type: TypeOwnerChanged, NewOwnerID: newOwnerID, NewOwnerName: newOwnerName}
}

// NewChatBroadcast builds a chat relay stamped with the current time.
func NewChatBroadcast(username, message, id string) ChatBroadcast {
	return ChatBroadcast{
		Type:      TypeGameChat,
		Message:   message,
		Username:  username,
		Timestamp: time.Now().UnixMilli(),
		ID:        id,
	}
}

// NewPong builds a pong reply.
func NewPong() Pong {
	return Pong{Type: TypePong}
}

// NewError builds an error message.
func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

// Encode marshals any server message for the wire.
func Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode: %w", err)
	}
	return data, nil
}
