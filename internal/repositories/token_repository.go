package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"gorm.io/gorm"
)

// TokenRepository defines the interface for password reset token operations
type TokenRepository interface {
	CreateToken(ctx context.Context, token *models.PasswordResetToken) error
	GetValidToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteTokenByID(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListTokens(ctx context.Context) ([]models.PasswordResetToken, error)
}

// PostgresTokenRepository implements TokenRepository on top of gorm
type PostgresTokenRepository struct {
	db *gorm.DB
}

// NewPostgresTokenRepository creates a new PostgresTokenRepository
func NewPostgresTokenRepository(db *gorm.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

// CreateToken inserts a new token
func (r *PostgresTokenRepository) CreateToken(ctx context.Context, token *models.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetValidToken returns the token only when it has not expired at now.
// Missing and expired tokens both yield gorm.ErrRecordNotFound.
func (r *PostgresTokenRepository) GetValidToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND expire_at > ?", token, now).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteToken deletes a token by its value
func (r *PostgresTokenRepository) DeleteToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.PasswordResetToken{}).Error
}

// DeleteTokenByID deletes a token by ID
func (r *PostgresTokenRepository) DeleteTokenByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PasswordResetToken{}, id).Error
}

// DeleteExpired removes every token that expired at or before now
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expire_at <= ?", now).Delete(&models.PasswordResetToken{})
	return res.RowsAffected, res.Error
}

// ListTokens retrieves all tokens
func (r *PostgresTokenRepository) ListTokens(ctx context.Context) ([]models.PasswordResetToken, error) {
	var tokens []models.PasswordResetToken
	if err := r.db.WithContext(ctx).Order("id").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}
