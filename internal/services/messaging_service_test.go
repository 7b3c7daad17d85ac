package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-sns/backend/internal/models"
)

func TestMessagingService_ReadThenCheckedScenario(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewMessagingService(store, nil)
	ctx := context.Background()

	a := createUser(t, db, "alice")
	b := createUser(t, db, "bob")
	makeFriends(t, db, a, b)

	sent, err := svc.SendMessage(ctx, a.ID, b.ID, "hello")
	require.NoError(t, err)
	assert.False(t, sent.IsRead)
	assert.False(t, sent.IsChecked)

	// A polls before B has read anything
	poll, err := svc.Poll(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, poll.Received)
	assert.Empty(t, poll.CheckedIDs)

	// B polls and receives the message
	poll, err = svc.Poll(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, poll.Received, 1)
	assert.Equal(t, "hello", poll.Received[0].Message)
	assert.True(t, poll.Received[0].IsRead)
	assert.Empty(t, poll.CheckedIDs)

	// a second poll by B delivers nothing new
	poll, err = svc.Poll(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, poll.Received)

	// A polls and learns the message was read
	poll, err = svc.Poll(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{sent.ID}, poll.CheckedIDs)

	var stored models.TalkMessage
	require.NoError(t, db.First(&stored, sent.ID).Error)
	assert.True(t, stored.IsRead)
	assert.True(t, stored.IsChecked)
}

func TestMessagingService_NonFriendRejected(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewMessagingService(store, nil)
	ctx := context.Background()

	a := createUser(t, db, "alice")
	c := createUser(t, db, "carol")
	// a pending request does not make them friends
	require.NoError(t, db.Create(&models.UserConnect{FromUserID: c.ID, ToUserID: a.ID, Status: models.ConnectPending}).Error)

	_, err := svc.SendMessage(ctx, c.ID, a.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFriends)

	var count int64
	require.NoError(t, db.Model(&models.TalkMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMessagingService_CheckedImpliesRead(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewMessagingService(store, nil)
	ctx := context.Background()

	a := createUser(t, db, "alice")
	b := createUser(t, db, "bob")
	makeFriends(t, db, a, b)

	var ids []uint
	for i := 0; i < 3; i++ {
		m, err := svc.SendMessage(ctx, a.ID, b.ID, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	// only the first message gets read
	n, err := svc.MarkRead(ctx, b.ID, ids[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// the sender tries to check all three
	n, err = svc.MarkChecked(ctx, a.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var rows []models.TalkMessage
	require.NoError(t, db.Order("id").Find(&rows).Error)
	for _, m := range rows {
		if m.IsChecked {
			assert.True(t, m.IsRead, "message %d checked without being read", m.ID)
		}
	}
	assert.True(t, rows[0].IsChecked)
	assert.False(t, rows[1].IsChecked)
}

func TestMessagingService_OpenConversation(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewMessagingService(store, nil)
	ctx := context.Background()

	a := createUser(t, db, "alice")
	b := createUser(t, db, "bob")
	makeFriends(t, db, a, b)

	mine, err := svc.SendMessage(ctx, a.ID, b.ID, "from alice")
	require.NoError(t, err)
	theirs, err := svc.SendMessage(ctx, b.ID, a.ID, "from bob")
	require.NoError(t, err)

	// bob opens: alice's message becomes read
	msgs, err := svc.OpenConversation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, mine.ID, msgs[0].ID)
	assert.True(t, msgs[0].IsRead)
	assert.False(t, msgs[0].IsChecked)
	assert.False(t, msgs[1].IsRead, "bob's own message is not read by opening")

	// alice opens: bob's message becomes read and her own becomes checked
	msgs, err = svc.OpenConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsChecked)
	assert.True(t, msgs[1].IsRead)

	var stored models.TalkMessage
	require.NoError(t, db.First(&stored, mine.ID).Error)
	assert.True(t, stored.IsChecked)
	require.NoError(t, db.First(&stored, theirs.ID).Error)
	assert.True(t, stored.IsRead)
	assert.False(t, stored.IsChecked)
}

func TestMessagingService_Paging(t *testing.T) {
	store, db := newTestStore(t)
	svc := NewMessagingService(store, nil)
	ctx := context.Background()

	a := createUser(t, db, "alice")
	b := createUser(t, db, "bob")
	makeFriends(t, db, a, b)

	batch := make([]models.TalkMessage, 0, PageSize+10)
	for i := 0; i < PageSize+10; i++ {
		batch = append(batch, models.TalkMessage{FromUserID: a.ID, ToUserID: b.ID, Message: fmt.Sprintf("m%d", i)})
	}
	require.NoError(t, db.CreateInBatches(&batch, 20).Error)

	latest, err := svc.ListConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, latest, PageSize)
	assert.Equal(t, "m10", latest[0].Message)
	assert.Equal(t, fmt.Sprintf("m%d", PageSize+9), latest[PageSize-1].Message)

	page0, err := svc.ListOlderMessages(ctx, b.ID, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, page0, PageSize)
	assert.Equal(t, fmt.Sprintf("m%d", PageSize+9), page0[0].Message)

	page1, err := svc.ListOlderMessages(ctx, a.ID, b.ID, 1)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	assert.Equal(t, "m9", page1[0].Message)
	assert.Equal(t, "m0", page1[9].Message)

	negative, err := svc.ListOlderMessages(ctx, a.ID, b.ID, -3)
	require.NoError(t, err)
	assert.Len(t, negative, PageSize)
}
