package domain

import "time"

// Room lifecycle states. A room is "waiting" from creation until the
// owner starts a game, "playing" while a game runs, and "finished"
// once a game has ended (it may return to "playing" on a restart).
const (
	RoomStatusWaiting  = "waiting"
	RoomStatusPlaying  = "playing"
	RoomStatusFinished = "finished"
)

// Room is the durable record of a game room. Live gameplay state is
// held in memory by the session layer; this row is the checkpoint
// target and the source for hydration.
type Room struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"type:varchar(191);not null"`
	OwnerID       uint   `gorm:"index;not null"`
	MaxPlayers    int    `gorm:"not null;default:8"`
	CanvasWidth   int    `gorm:"not null;default:800"`
	CanvasHeight  int    `gorm:"not null;default:600"`
	GameTimeLimit int    `gorm:"not null;default:120"` // seconds
	Private       bool   `gorm:"not null;default:false"`
	PasswordHash  string `gorm:"type:text"`
	Status        string `gorm:"type:varchar(32);index;not null;default:'waiting'"`
	WinnerID      uint   `gorm:"default:0"`
	CreatedAt     time.Time
	LastActive    time.Time `gorm:"index"`
	UpdatedAt     time.Time
}
