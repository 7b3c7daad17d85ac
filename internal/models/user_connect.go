package models

import "time"

// ConnectStatus is the state of a directed connection edge
type ConnectStatus int

const (
	ConnectPending  ConnectStatus = 1
	ConnectAccepted ConnectStatus = 2
)

// UserConnect represents a directed friend request between two users.
// A friendship exists when an edge between the pair, in either direction, is accepted.
type UserConnect struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	FromUserID uint          `json:"from_user_id" gorm:"index;uniqueIndex:idx_connect_pair"` // User ID of the requester
	ToUserID   uint          `json:"to_user_id" gorm:"index;uniqueIndex:idx_connect_pair"`   // User ID of the recipient
	Status     ConnectStatus `json:"status" gorm:"default:1"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Relation describes how a user relates to the viewer in the connection graph
type Relation string

const (
	RelationNone       Relation = "none"
	RelationRequesting Relation = "requesting" // viewer sent a pending request
	RelationRequested  Relation = "requested"  // the other user sent a pending request
	RelationFriend     Relation = "friend"
)

// RelationFor derives the viewer-relative relation from an edge between the pair
func RelationFor(viewerID uint, c *UserConnect) Relation {
	if c == nil {
		return RelationNone
	}
	if c.Status == ConnectAccepted {
		return RelationFriend
	}
	if c.FromUserID == viewerID {
		return RelationRequesting
	}
	return RelationRequested
}
