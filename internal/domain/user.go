// Package domain defines the persistent data models of the application.
package domain

import "time"

// User is a registered account. Password holds the bcrypt hash.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"type:varchar(191);uniqueIndex:idx_username;not null"`
	Password  string `gorm:"type:text;not null"`
	Email     string `gorm:"type:varchar(191);uniqueIndex:idx_email"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
