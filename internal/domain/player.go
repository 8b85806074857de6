package domain

import "time"

// Player is the durable membership of a user in a room, including the
// assigned paint color and the last checkpointed score. Connection
// status is transient and never persisted.
type Player struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     uint   `gorm:"uniqueIndex:idx_room_user;not null"`
	UserID     uint   `gorm:"uniqueIndex:idx_room_user;not null"`
	Username   string `gorm:"type:varchar(191);not null"`
	Color      string `gorm:"type:varchar(32);not null"` // "rgb(r, g, b)"
	Score      int    `gorm:"not null;default:0"`
	JoinedAt   time.Time
	LastActive time.Time
	UpdatedAt  time.Time
}
