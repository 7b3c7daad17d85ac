package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-sns/backend/internal/models"
)

func TestPasswordResetService_IssueAndResolve(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewPasswordResetService(store, nil, 0)
	ctx := context.Background()

	user := createUser(t, db, "alice")

	first, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	_, err = uuid.Parse(first.Token)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(DefaultTokenTTL), first.ExpireAt, time.Minute)

	second, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	// both tokens stay usable
	for _, tok := range []string{first.Token, second.Token} {
		id, found, err := svc.Resolve(ctx, tok)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, user.ID, id)
	}

	_, found, err := svc.Resolve(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPasswordResetService_ExpiredTokenNotResolved(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewPasswordResetService(store, nil, time.Hour)
	ctx := context.Background()

	user := createUser(t, db, "alice")
	tok, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	_, found, err := svc.Resolve(ctx, tok.Token)
	require.NoError(t, err)
	assert.False(t, found)

	// the row is still there until purged
	var count int64
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = svc.Consume(ctx, tok.Token, "0123456789")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPasswordResetService_ConsumeIsSingleUse(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewPasswordResetService(store, nil, 0)
	ctx := context.Background()

	user := &models.User{Username: "new", Email: "new@example.com", Password: "unusable"}
	require.NoError(t, db.Create(user).Error)
	require.False(t, user.IsActive)

	tok, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	id, err := svc.Consume(ctx, tok.Token, "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.True(t, stored.IsActive)
	assert.True(t, CheckPassword(stored.Password, "correct horse battery"))

	_, found, err := svc.Resolve(ctx, tok.Token)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.Consume(ctx, tok.Token, "another password")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestPasswordResetService_ConsumeRollsBackWithoutUser(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewPasswordResetService(store, nil, 0)
	ctx := context.Background()

	// token pointing at a user that does not exist
	tok, err := svc.Issue(ctx, 4242)
	require.NoError(t, err)

	_, err = svc.Consume(ctx, tok.Token, "0123456789")
	assert.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Where("token = ?", tok.Token).Count(&count).Error)
	assert.Equal(t, int64(1), count, "token must survive a failed consume")
}
