package repositories

import (
	"context"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct message operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.TalkMessage) error
	GetLatestMessages(ctx context.Context, userID, otherUserID uint, limit int) ([]models.TalkMessage, error)
	GetOlderMessages(ctx context.Context, userID, otherUserID uint, offset, limit int) ([]models.TalkMessage, error)
	GetUnreadMessages(ctx context.Context, fromUserID, toUserID uint) ([]models.TalkMessage, error)
	GetUncheckedMessages(ctx context.Context, fromUserID, toUserID uint) ([]models.TalkMessage, error)
	MarkRead(ctx context.Context, viewerID uint, ids []uint) (int64, error)
	MarkChecked(ctx context.Context, viewerID uint, ids []uint) (int64, error)
}

// PostgresMessageRepository implements MessageRepository on top of gorm
type PostgresMessageRepository struct {
	db *gorm.DB
}

// NewPostgresMessageRepository creates a new PostgresMessageRepository
func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func betweenPair(userID, otherUserID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, otherUserID, otherUserID, userID)
	}
}

// CreateMessage inserts a new message
func (r *PostgresMessageRepository) CreateMessage(ctx context.Context, message *models.TalkMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetLatestMessages returns the newest limit messages of the pair in ascending id order
func (r *PostgresMessageRepository) GetLatestMessages(ctx context.Context, userID, otherUserID uint, limit int) ([]models.TalkMessage, error) {
	var messages []models.TalkMessage
	err := r.db.WithContext(ctx).Scopes(betweenPair(userID, otherUserID)).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetOlderMessages returns one page of the pair's messages in descending id order
func (r *PostgresMessageRepository) GetOlderMessages(ctx context.Context, userID, otherUserID uint, offset, limit int) ([]models.TalkMessage, error) {
	var messages []models.TalkMessage
	err := r.db.WithContext(ctx).Scopes(betweenPair(userID, otherUserID)).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetUnreadMessages returns the messages fromUserID sent to toUserID that are not read yet
func (r *PostgresMessageRepository) GetUnreadMessages(ctx context.Context, fromUserID, toUserID uint) ([]models.TalkMessage, error) {
	var messages []models.TalkMessage
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND is_read = ?", fromUserID, toUserID, false).
		Order("id").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetUncheckedMessages returns the messages fromUserID sent to toUserID that were read but not checked
func (r *PostgresMessageRepository) GetUncheckedMessages(ctx context.Context, fromUserID, toUserID uint) ([]models.TalkMessage, error) {
	var messages []models.TalkMessage
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND is_read = ? AND is_checked = ?", fromUserID, toUserID, true, false).
		Order("id").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flags the given messages as read. Only messages addressed to viewerID are touched.
func (r *PostgresMessageRepository) MarkRead(ctx context.Context, viewerID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.TalkMessage{}).
		Where("id IN ? AND to_user_id = ?", ids, viewerID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// MarkChecked flags the given messages as checked. Only messages sent by viewerID
// that the recipient has already read are touched.
func (r *PostgresMessageRepository) MarkChecked(ctx context.Context, viewerID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.TalkMessage{}).
		Where("id IN ? AND from_user_id = ? AND is_read = ?", ids, viewerID, true).
		Update("is_checked", true)
	return res.RowsAffected, res.Error
}
