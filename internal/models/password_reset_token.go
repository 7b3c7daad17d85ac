package models

import "time"

// PasswordResetToken stores single-use password reset tokens for users.
type PasswordResetToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"size:64;uniqueIndex;not null"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpireAt  time.Time `json:"expire_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the token can no longer be resolved at now
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpireAt)
}
