package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMarkAsReadIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "reader", models.RoleAuthor)
	repo := NewPostgresNotificationRepository(db)

	n := &models.Notification{RecipientID: user.ID, Kind: models.NotificationFollow, Message: "hi"}
	require.NoError(t, repo.CreateNotification(ctx, n))

	unread, err := repo.GetUnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	require.NoError(t, repo.MarkAsRead(ctx, n.ID))
	require.NoError(t, repo.MarkAsRead(ctx, n.ID))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	unread, err = repo.GetUnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)
}

func TestMarkAllAsRead(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "reader", models.RoleAuthor)
	other := testutil.CreateUser(t, db, "other", models.RoleAuthor)
	repo := NewPostgresNotificationRepository(db)

	for _, id := range []uint{user.ID, user.ID, other.ID} {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{RecipientID: id, Kind: models.NotificationFollow}))
	}

	n, err := repo.MarkAllAsRead(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.MarkAllAsRead(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	unread, err := repo.GetUnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestNotificationDelete(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "reader", models.RoleAuthor)
	repo := NewPostgresNotificationRepository(db)

	n := &models.Notification{RecipientID: user.ID, Kind: models.NotificationFollow}
	require.NoError(t, repo.CreateNotification(ctx, n))
	require.NoError(t, repo.Delete(ctx, n.ID))
	assert.ErrorIs(t, repo.Delete(ctx, n.ID), gorm.ErrRecordNotFound)
}

func TestGetGroupedBuckets(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "reader", models.RoleAuthor)
	repo := NewPostgresNotificationRepository(db)

	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	ages := []time.Duration{time.Hour, 24 * time.Hour, 3 * 24 * time.Hour, 10 * 24 * time.Hour, 30 * 24 * time.Hour}
	for _, age := range ages {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{
			RecipientID: user.ID,
			Kind:        models.NotificationFollow,
			CreatedAt:   now.Add(-age),
		}))
	}

	g, err := repo.GetGrouped(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Len(t, g.Today, 1)
	assert.Len(t, g.Yesterday, 1)
	assert.Len(t, g.ThisWeek, 1)
	assert.Len(t, g.Older, 2)
	assert.True(t, g.Older[0].CreatedAt.After(g.Older[1].CreatedAt))
}

func TestGetByRecipientIDPages(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "reader", models.RoleAuthor)
	repo := NewPostgresNotificationRepository(db)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{RecipientID: user.ID, Kind: models.NotificationFollow}))
	}
	page, total, err := repo.GetByRecipientID(ctx, user.ID, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)
}
