package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-sns/backend/internal/metrics"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/anonto42/nano-sns/backend/pkg/storage"
	"gorm.io/gorm"
)

// AccountService manages registration, login and profile changes
type AccountService struct {
	store    *repositories.Store
	resets   *PasswordResetService
	pictures storage.PictureStore
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewAccountService creates a new AccountService
func NewAccountService(store *repositories.Store, resets *PasswordResetService, pictures storage.PictureStore, m *metrics.Metrics) *AccountService {
	return &AccountService{
		store:    store,
		resets:   resets,
		pictures: pictures,
		metrics:  m,
		now:      time.Now,
	}
}

// Register creates an inactive account and the reset token its owner sets a password with
func (s *AccountService) Register(ctx context.Context, username, email string) (*models.User, *models.PasswordResetToken, error) {
	hash, err := unusablePasswordHash()
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
	}
	var token *models.PasswordResetToken
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Users.GetUserByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("get user by email: %w", err)
		}

		if err := tx.Users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}

		var err error
		token, err = s.resets.issue(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncRegistration()
	s.metrics.IncPasswordReset("issued")
	return user, token, nil
}

// RequestReset issues a new reset token for the account registered with email
func (s *AccountService) RequestReset(ctx context.Context, email string) (*models.User, *models.PasswordResetToken, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	token, err := s.resets.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Authenticate checks the credentials and returns the user.
// It distinguishes ErrUserNotFound, ErrUserInactive and ErrInvalidPassword.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !CheckPassword(user.Password, password) {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *AccountService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password of a logged in user
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfile changes the username and email of a user and, when picture is not empty,
// stores it as the new profile picture.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, username, email string, picture []byte) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != user.Email {
		other, err := s.store.Users.GetUserByEmail(ctx, email)
		if err == nil && other.ID != user.ID {
			return nil, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
	}

	user.Username = username
	user.Email = email
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Users.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if len(picture) == 0 {
			return nil
		}

		// the file is written only once the row update has gone through
		name := fmt.Sprintf("%d_%d.jpg", user.ID, s.now().Unix())
		p, err := s.pictures.Save(ctx, name, picture)
		if err != nil {
			return fmt.Errorf("save picture: %w", err)
		}
		user.PicturePath = p
		if err := tx.Users.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update picture path: %w", err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns every account
func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes an account and everything that refers to it
func (s *AccountService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.store.Users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}
