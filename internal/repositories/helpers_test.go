package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/nano-sns/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: gets its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, active bool) *models.User {
	t.Helper()

	user := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hash",
		IsActive: active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createConnect(t *testing.T, db *gorm.DB, from, to uint, status models.ConnectStatus) *models.UserConnect {
	t.Helper()

	connect := &models.UserConnect{FromUserID: from, ToUserID: to, Status: status}
	require.NoError(t, NewPostgresConnectRepository(db).CreateConnect(context.Background(), connect))
	return connect
}
