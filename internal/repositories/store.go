package repositories

import (
	"context"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"gorm.io/gorm"
)

// Store groups the relational repositories so that they can share a transaction
type Store struct {
	db       *gorm.DB
	Users    UserRepository
	Connects ConnectRepository
	Messages MessageRepository
	Tokens   TokenRepository
}

// NewStore creates a Store whose repositories all run on db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    NewPostgresUserRepository(db),
		Connects: NewPostgresConnectRepository(db),
		Messages: NewPostgresMessageRepository(db),
		Tokens:   NewPostgresTokenRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single database transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Migrate creates or updates the tables for every relational model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.PasswordResetToken{},
		&models.UserConnect{},
		&models.TalkMessage{},
		&models.UserContact{},
	)
}
