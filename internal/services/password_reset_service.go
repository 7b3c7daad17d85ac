package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-sns/backend/internal/metrics"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTokenTTL is how long an issued reset token stays resolvable
const DefaultTokenTTL = 24 * time.Hour

// PasswordResetService issues and consumes single-use password reset tokens
type PasswordResetService struct {
	store   *repositories.Store
	metrics *metrics.Metrics
	ttl     time.Duration
	now     func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService. A non-positive ttl means DefaultTokenTTL.
func NewPasswordResetService(store *repositories.Store, m *metrics.Metrics, ttl time.Duration) *PasswordResetService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &PasswordResetService{
		store:   store,
		metrics: m,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new token for userID. Earlier tokens of the user stay valid.
func (s *PasswordResetService) Issue(ctx context.Context, userID uint) (*models.PasswordResetToken, error) {
	token, err := s.issue(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncPasswordReset("issued")
	return token, nil
}

func (s *PasswordResetService) issue(ctx context.Context, store *repositories.Store, userID uint) (*models.PasswordResetToken, error) {
	token := &models.PasswordResetToken{
		Token:    uuid.NewString(),
		UserID:   userID,
		ExpireAt: s.now().Add(s.ttl),
	}
	if err := store.Tokens.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

// Resolve returns the user the token belongs to. found is false for unknown or expired tokens.
func (s *PasswordResetService) Resolve(ctx context.Context, token string) (userID uint, found bool, err error) {
	t, err := s.store.Tokens.GetValidToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get token: %w", err)
	}
	return t.UserID, true, nil
}

// Consume sets the password of the token's user, activates the account and deletes the
// token, all in one transaction. It returns ErrTokenNotFound when the token cannot be resolved.
func (s *PasswordResetService) Consume(ctx context.Context, token, password string) (uint, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var userID uint
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		t, err := tx.Tokens.GetValidToken(ctx, token, s.now())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenNotFound
			}
			return fmt.Errorf("get token: %w", err)
		}
		if err := tx.Users.UpdatePassword(ctx, t.UserID, hash); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("update password: %w", err)
		}
		if err := tx.Tokens.DeleteToken(ctx, token); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		userID = t.UserID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.IncPasswordReset("consumed")
	return userID, nil
}

// PurgeExpired deletes every token that can no longer be resolved
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.Tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return n, nil
}
