package repository

import (
	"context"

	"color-clash/internal/domain"
)

// PlayerRepository stores and retrieves durable room memberships.
type PlayerRepository interface {
	// Upsert creates the membership row or updates it when the
	// (room_id, user_id) pair already exists.
	Upsert(ctx context.Context, player *domain.Player) error

	// ListByRoom returns the members of a room ordered by join time.
	ListByRoom(ctx context.Context, roomID uint) ([]domain.Player, error)

	// SaveScores writes the checkpointed scores for a room in one batch.
	SaveScores(ctx context.Context, roomID uint, scores map[uint]int) error

	// Delete removes a single membership row.
	Delete(ctx context.Context, roomID, userID uint) error

	// DeleteByRoom removes every membership row of a room.
	DeleteByRoom(ctx context.Context, roomID uint) error
}
