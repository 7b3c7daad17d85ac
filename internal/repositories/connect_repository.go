package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"gorm.io/gorm"
)

// ConnectRepository defines the interface for connection edge operations
type ConnectRepository interface {
	CreateConnect(ctx context.Context, connect *models.UserConnect) error
	GetConnectBetween(ctx context.Context, userID, otherUserID uint) (*models.UserConnect, error)
	GetConnectsWith(ctx context.Context, viewerID uint, otherIDs []uint) ([]models.UserConnect, error)
	AcceptConnect(ctx context.Context, fromUserID, toUserID uint) (bool, error)
	IsFriend(ctx context.Context, userID, otherUserID uint) (bool, error)
	GetFriends(ctx context.Context, userID uint) ([]models.User, error)
	GetRequestedFriends(ctx context.Context, userID uint) ([]models.User, error)
	GetRequestingFriends(ctx context.Context, userID uint) ([]models.User, error)
	ListConnects(ctx context.Context) ([]models.UserConnect, error)
	DeleteConnect(ctx context.Context, id uint) error
}

// PostgresConnectRepository implements ConnectRepository on top of gorm
type PostgresConnectRepository struct {
	db *gorm.DB
}

// NewPostgresConnectRepository creates a new PostgresConnectRepository
func NewPostgresConnectRepository(db *gorm.DB) *PostgresConnectRepository {
	return &PostgresConnectRepository{db: db}
}

// CreateConnect inserts a new edge
func (r *PostgresConnectRepository) CreateConnect(ctx context.Context, connect *models.UserConnect) error {
	return r.db.WithContext(ctx).Create(connect).Error
}

// GetConnectBetween returns the edge between two users in either direction
func (r *PostgresConnectRepository) GetConnectBetween(ctx context.Context, userID, otherUserID uint) (*models.UserConnect, error) {
	var connect models.UserConnect
	err := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, otherUserID, otherUserID, userID).
		Order("id").
		First(&connect).Error
	if err != nil {
		return nil, err
	}
	return &connect, nil
}

// GetConnectsWith returns every edge between the viewer and any of otherIDs
func (r *PostgresConnectRepository) GetConnectsWith(ctx context.Context, viewerID uint, otherIDs []uint) ([]models.UserConnect, error) {
	var connects []models.UserConnect
	if len(otherIDs) == 0 {
		return connects, nil
	}
	err := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id IN ?) OR (to_user_id = ? AND from_user_id IN ?)",
			viewerID, otherIDs, viewerID, otherIDs).
		Find(&connects).Error
	if err != nil {
		return nil, err
	}
	return connects, nil
}

// AcceptConnect moves the pending edge fromUserID -> toUserID to accepted.
// It reports false when no such pending edge exists.
func (r *PostgresConnectRepository) AcceptConnect(ctx context.Context, fromUserID, toUserID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.UserConnect{}).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromUserID, toUserID, models.ConnectPending).
		Updates(map[string]interface{}{
			"status":     models.ConnectAccepted,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsFriend reports whether an accepted edge exists between the two users
func (r *PostgresConnectRepository) IsFriend(ctx context.Context, userID, otherUserID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserConnect{}).
		Where("((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)) AND status = ?",
			userID, otherUserID, otherUserID, userID, models.ConnectAccepted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFriends retrieves all users with an accepted edge to userID
func (r *PostgresConnectRepository) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var friends []models.User
	db := r.db.WithContext(ctx)
	// Accepted edges sent by the user, or received by the user
	sent := db.Model(&models.UserConnect{}).Select("to_user_id").Where("from_user_id = ? AND status = ?", userID, models.ConnectAccepted)
	received := db.Model(&models.UserConnect{}).Select("from_user_id").Where("to_user_id = ? AND status = ?", userID, models.ConnectAccepted)

	if err := db.Where("id IN (?) OR id IN (?)", sent, received).Order("id").Find(&friends).Error; err != nil {
		return nil, err
	}
	return friends, nil
}

// GetRequestedFriends retrieves the users whose request to userID is still pending
func (r *PostgresConnectRepository) GetRequestedFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	db := r.db.WithContext(ctx)
	incoming := db.Model(&models.UserConnect{}).Select("from_user_id").Where("to_user_id = ? AND status = ?", userID, models.ConnectPending)

	if err := db.Where("id IN (?)", incoming).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetRequestingFriends retrieves the users that userID has sent a still pending request to
func (r *PostgresConnectRepository) GetRequestingFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	db := r.db.WithContext(ctx)
	outgoing := db.Model(&models.UserConnect{}).Select("to_user_id").Where("from_user_id = ? AND status = ?", userID, models.ConnectPending)

	if err := db.Where("id IN (?)", outgoing).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListConnects retrieves all edges
func (r *PostgresConnectRepository) ListConnects(ctx context.Context) ([]models.UserConnect, error) {
	var connects []models.UserConnect
	if err := r.db.WithContext(ctx).Order("id").Find(&connects).Error; err != nil {
		return nil, err
	}
	return connects, nil
}

// DeleteConnect deletes an edge by ID
func (r *PostgresConnectRepository) DeleteConnect(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.UserConnect{}, id).Error
}
