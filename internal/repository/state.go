package repository

import (
	"context"
	"time"
)

// StateRepository covers the fast, ephemeral state kept in Redis:
// request rate counters and per-room flush bookkeeping.
type StateRepository interface {
	// CheckRateLimit increments the counter behind key and reports
	// whether the caller exceeded limit within the window.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// MarkFlushed records the time of the latest successful checkpoint
	// for a room.
	MarkFlushed(ctx context.Context, roomID uint, at time.Time) error

	// LastFlushed returns the time of the latest checkpoint, or the zero
	// time when the room was never flushed.
	LastFlushed(ctx context.Context, roomID uint) (time.Time, error)
}
