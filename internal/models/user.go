package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:64;index"`
	Email       string    `json:"email" gorm:"size:64;uniqueIndex"` // Ensure email is unique across all users
	Password    string    `json:"-" gorm:"size:128"`                 // Store hashed password, ignore for JSON serialization
	PicturePath string    `json:"picture_path,omitempty" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:false"` // Set once the first password has been saved
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public subset of a user shown next to messages and in lists
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	PicturePath string `json:"picture_path,omitempty"`
}

// ToCompact converts a User to its compact public form
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		PicturePath: u.PicturePath,
	}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
