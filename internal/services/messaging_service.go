package services

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-sns/backend/internal/metrics"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
)

// PageSize is the number of messages in the conversation view and in each older page
const PageSize = 50

// PollResult is what a conversation poll delivers to the viewer
type PollResult struct {
	// Received are the peer's messages that were unread until this poll
	Received []models.TalkMessage
	// CheckedIDs are the viewer's messages the peer has read since the last poll
	CheckedIDs []uint
}

// MessagingService manages direct messages between friends
type MessagingService struct {
	store   *repositories.Store
	metrics *metrics.Metrics
}

// NewMessagingService creates a new MessagingService
func NewMessagingService(store *repositories.Store, m *metrics.Metrics) *MessagingService {
	return &MessagingService{store: store, metrics: m}
}

// SendMessage stores a message from one friend to another. Non-friends get ErrNotFriends.
func (s *MessagingService) SendMessage(ctx context.Context, fromUserID, toUserID uint, text string) (*models.TalkMessage, error) {
	message := &models.TalkMessage{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Message:    text,
	}
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		friends, err := tx.Connects.IsFriend(ctx, fromUserID, toUserID)
		if err != nil {
			return fmt.Errorf("is friend: %w", err)
		}
		if !friends {
			return ErrNotFriends
		}
		if err := tx.Messages.CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMessageSent()
	return message, nil
}

// ListConversation returns the latest PageSize messages of the pair, oldest first
func (s *MessagingService) ListConversation(ctx context.Context, userID, otherUserID uint) ([]models.TalkMessage, error) {
	messages, err := s.store.Messages.GetLatestMessages(ctx, userID, otherUserID, PageSize)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return messages, nil
}

// ListOlderMessages returns page number page of the pair's history, newest first.
// Page 0 overlaps ListConversation; clients ask for 1, 2, ... as they scroll back.
func (s *MessagingService) ListOlderMessages(ctx context.Context, userID, otherUserID uint, page int) ([]models.TalkMessage, error) {
	if page < 0 {
		page = 0
	}
	messages, err := s.store.Messages.GetOlderMessages(ctx, userID, otherUserID, page*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("list older messages: %w", err)
	}
	return messages, nil
}

// MarkRead sets is_read on the given messages that are addressed to viewerID
func (s *MessagingService) MarkRead(ctx context.Context, viewerID uint, ids []uint) (int64, error) {
	n, err := s.store.Messages.MarkRead(ctx, viewerID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	s.metrics.AddMessageState("read", n)
	return n, nil
}

// MarkChecked sets is_checked on the given messages that viewerID sent and that are already read
func (s *MessagingService) MarkChecked(ctx context.Context, viewerID uint, ids []uint) (int64, error) {
	n, err := s.store.Messages.MarkChecked(ctx, viewerID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark checked: %w", err)
	}
	s.metrics.AddMessageState("checked", n)
	return n, nil
}

// OpenConversation lists the conversation for viewerID and, within that listing, marks
// the peer's unread messages read and the viewer's read messages checked.
// The returned messages carry the updated flags.
func (s *MessagingService) OpenConversation(ctx context.Context, viewerID, peerID uint) ([]models.TalkMessage, error) {
	var messages []models.TalkMessage
	var read, checked int64
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		messages, err = tx.Messages.GetLatestMessages(ctx, viewerID, peerID, PageSize)
		if err != nil {
			return fmt.Errorf("list conversation: %w", err)
		}

		var readIDs, checkedIDs []uint
		for _, m := range messages {
			switch {
			case m.FromUserID == peerID && !m.IsRead:
				readIDs = append(readIDs, m.ID)
			case m.FromUserID == viewerID && m.IsRead && !m.IsChecked:
				checkedIDs = append(checkedIDs, m.ID)
			}
		}

		if read, err = tx.Messages.MarkRead(ctx, viewerID, readIDs); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		if checked, err = tx.Messages.MarkChecked(ctx, viewerID, checkedIDs); err != nil {
			return fmt.Errorf("mark checked: %w", err)
		}

		for i := range messages {
			m := &messages[i]
			switch {
			case m.FromUserID == peerID && !m.IsRead:
				m.IsRead = true
			case m.FromUserID == viewerID && m.IsRead && !m.IsChecked:
				m.IsChecked = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddMessageState("read", read)
	s.metrics.AddMessageState("checked", checked)
	return messages, nil
}

// Poll delivers the peer's unread messages to viewerID, marking them read, and reports which
// of the viewer's messages the peer has read since, marking those checked.
func (s *MessagingService) Poll(ctx context.Context, viewerID, peerID uint) (*PollResult, error) {
	result := &PollResult{}
	var read, checked int64
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		unread, err := tx.Messages.GetUnreadMessages(ctx, peerID, viewerID)
		if err != nil {
			return fmt.Errorf("get unread messages: %w", err)
		}
		ids := make([]uint, 0, len(unread))
		for i := range unread {
			ids = append(ids, unread[i].ID)
			unread[i].IsRead = true
		}
		if read, err = tx.Messages.MarkRead(ctx, viewerID, ids); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}

		unchecked, err := tx.Messages.GetUncheckedMessages(ctx, viewerID, peerID)
		if err != nil {
			return fmt.Errorf("get unchecked messages: %w", err)
		}
		checkedIDs := make([]uint, 0, len(unchecked))
		for _, m := range unchecked {
			checkedIDs = append(checkedIDs, m.ID)
		}
		if checked, err = tx.Messages.MarkChecked(ctx, viewerID, checkedIDs); err != nil {
			return fmt.Errorf("mark checked: %w", err)
		}

		result.Received = unread
		result.CheckedIDs = checkedIDs
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddMessageState("read", read)
	s.metrics.AddMessageState("checked", checked)
	return result, nil
}
