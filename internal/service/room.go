package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"color-clash/internal/domain"
	"color-clash/internal/repository"
)

// Room parameter bounds. Out-of-range requests are clamped rather than
// rejected; a playable room beats an error dialog.
const (
	minPlayers       = 2
	maxPlayersCap    = 16
	defaultPlayers   = 8
	minCanvasDim     = 100
	maxCanvasDim     = 2000
	defaultCanvasW   = 800
	defaultCanvasH   = 600
	minTimeLimitSec  = 30
	maxTimeLimitSec  = 3600
	defaultTimeLimit = 120
)

// CreateRoomInput carries the validated-and-clamped room parameters.
type CreateRoomInput struct {
	Name          string
	MaxPlayers    int
	CanvasWidth   int
	CanvasHeight  int
	GameTimeLimit int
	Password      string
}

// RoomService handles room management over HTTP: create, join, list.
type RoomService struct {
	roomRepo repository.RoomRepository
}

// NewRoomService creates a RoomService.
func NewRoomService(roomRepo repository.RoomRepository) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo}
}

// CreateRoom creates a room owned by the given user. A non-empty
// password makes the room private.
func (s *RoomService) CreateRoom(ctx context.Context, ownerID uint, in CreateRoomInput) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "room_name": in.Name})

	if in.Name == "" {
		return nil, ErrInvalidInput
	}

	room := &domain.Room{
		Name:          in.Name,
		OwnerID:       ownerID,
		MaxPlayers:    clamp(in.MaxPlayers, minPlayers, maxPlayersCap, defaultPlayers),
		CanvasWidth:   clamp(in.CanvasWidth, minCanvasDim, maxCanvasDim, defaultCanvasW),
		CanvasHeight:  clamp(in.CanvasHeight, minCanvasDim, maxCanvasDim, defaultCanvasH),
		GameTimeLimit: clamp(in.GameTimeLimit, minTimeLimitSec, maxTimeLimitSec, defaultTimeLimit),
		Status:        domain.RoomStatusWaiting,
		LastActive:    time.Now(),
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			logCtx.WithError(err).Error("Failed to hash room password")
			return nil, ErrInternalServer
		}
		room.Private = true
		room.PasswordHash = hash
	}

	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to save new room to database")
		return nil, ErrInternalServer
	}

	logCtx.WithField("room_id", room.ID).Info("Room created successfully")
	return room, nil
}

// JoinRoom validates a user's entry into a room. Private rooms require
// the matching password; the websocket layer does the actual admission.
func (s *RoomService) JoinRoom(ctx context.Context, userID, roomID uint, password string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Private && !checkPassword(password, room.PasswordHash) {
		logCtx.Warn("Join rejected: invalid room password")
		return nil, ErrInvalidRoomPassword
	}

	logCtx.Info("User cleared to join room")
	return room, nil
}

// GetRoom fetches a room by id.
func (s *RoomService) GetRoom(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithField("room_id", roomID).WithError(err).Error("Repository error fetching room")
		return nil, ErrInternalServer
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// ListPublicRooms returns the joinable public rooms.
func (s *RoomService) ListPublicRooms(ctx context.Context, limit int) ([]domain.Room, error) {
	rooms, err := s.roomRepo.ListPublic(ctx, limit)
	if err != nil {
		logrus.WithError(err).Error("Repository error listing public rooms")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

func clamp(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
