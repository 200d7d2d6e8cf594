package models

import "time"

// Blacklist records the identifier (jti) of a revoked access token
type Blacklist struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Blacklist) TableName() string { return "blacklist" }

// PasswordReset holds a pending password reset token for a user
type PasswordReset struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}
