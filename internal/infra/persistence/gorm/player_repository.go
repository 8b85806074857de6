package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"color-clash/internal/domain"
	"color-clash/internal/repository"
)

// GormPlayerRepository is the GORM implementation of PlayerRepository.
type GormPlayerRepository struct {
	db *gorm.DB
}

// NewGormPlayerRepository creates a GormPlayerRepository.
func NewGormPlayerRepository(db *gorm.DB) *GormPlayerRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPlayerRepository")
	}
	return &GormPlayerRepository{db: db}
}

// Upsert inserts the membership row, or refreshes username, color,
// score and last activity when the (room_id, user_id) pair already
// exists. The original joined_at survives every refresh.
func (r *GormPlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "color", "score", "last_active", "updated_at"}),
	}).Create(player).Error
	if err != nil {
		return fmt.Errorf("gorm: upsert player (room: %d, user: %d): %w", player.RoomID, player.UserID, err)
	}
	return nil
}

// ListByRoom returns room members in join order.
func (r *GormPlayerRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.Player, error) {
	var players []domain.Player
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC, id ASC").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list players for room %d: %w", roomID, err)
	}
	return players, nil
}

// SaveScores writes one checkpoint batch of scores in a transaction.
func (r *GormPlayerRepository) SaveScores(ctx context.Context, roomID uint, scores map[uint]int) error {
	if len(scores) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for userID, score := range scores {
			res := tx.Model(&domain.Player{}).
				Where("room_id = ? AND user_id = ?", roomID, userID).
				Update("score", score)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gorm: save scores for room %d: %w", roomID, err)
	}
	return nil
}

// Delete removes a single membership row.
func (r *GormPlayerRepository) Delete(ctx context.Context, roomID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.Player{})
	if res.Error != nil {
		return fmt.Errorf("gorm: delete player (room: %d, user: %d): %w", roomID, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrPlayerNotFound
	}
	return nil
}

// DeleteByRoom removes every membership row of a room.
func (r *GormPlayerRepository) DeleteByRoom(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&domain.Player{}).Error
	if err != nil {
		return fmt.Errorf("gorm: delete players for room %d: %w", roomID, err)
	}
	return nil
}
