package views

import (
	"strings"
	"time"

	"github.com/anonto42/nano-sns/backend/internal/models"
)

// MessageView is a message as the conversation screen shows it
type MessageView struct {
	ID        uint               `json:"id"`
	Mine      bool               `json:"mine"`
	Lines     []string           `json:"lines"`
	Checked   bool               `json:"checked"`
	Author    models.UserCompact `json:"author"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewMessageViews builds the view models for messages between viewer and peer, keeping their order
func NewMessageViews(viewer, peer *models.User, messages []models.TalkMessage) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		author := peer
		if m.FromUserID == viewer.ID {
			author = viewer
		}
		views = append(views, MessageView{
			ID:        m.ID,
			Mine:      m.FromUserID == viewer.ID,
			Lines:     splitLines(m.Message),
			Checked:   m.FromUserID == viewer.ID && m.IsChecked,
			Author:    author.ToCompact(),
			CreatedAt: m.CreatedAt,
		})
	}
	return views
}

// Reversed returns a copy of views in the opposite order
func Reversed(views []MessageView) []MessageView {
	out := make([]MessageView, len(views))
	for i, v := range views {
		out[len(views)-1-i] = v
	}
	return out
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
