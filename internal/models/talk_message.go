package models

import "time"

// TalkMessage is a direct message between two friends.
// IsRead is set when the recipient retrieves it, IsChecked when the sender has seen that it was read.
type TalkMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FromUserID uint      `json:"from_user_id" gorm:"index"`
	ToUserID   uint      `json:"to_user_id" gorm:"index"`
	Message    string    `json:"message" gorm:"type:text"`
	IsRead     bool      `json:"is_read" gorm:"default:false;index"`
	IsChecked  bool      `json:"is_checked" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
