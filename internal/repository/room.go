package repository

import (
	"context"
	"time"

	"color-clash/internal/domain"
)

// RoomRepository stores and retrieves durable room records.
type RoomRepository interface {
	// FindByID looks up a room by its ID. Returns ErrRoomNotFound when
	// no such room exists.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// Save creates the room when its ID is zero, updates it otherwise.
	Save(ctx context.Context, room *domain.Room) error

	// ListPublic returns non-private rooms, most recently active first.
	ListPublic(ctx context.Context, limit int) ([]domain.Room, error)

	// ListStale returns IDs of rooms whose last activity is older than
	// the cutoff. Used by the background sweep.
	ListStale(ctx context.Context, cutoff time.Time) ([]uint, error)

	// Delete removes the room row. Deleting a missing room is not an error.
	Delete(ctx context.Context, id uint) error
}
