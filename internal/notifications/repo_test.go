package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	notificationsTable := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  recipient_id TEXT NOT NULL,
  recipient_type TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  resource_type TEXT,
  resource_id TEXT,
  actor_id TEXT,
  actor_name TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	preferencesTable := `
CREATE TABLE IF NOT EXISTS notification_preferences (
  user_id TEXT PRIMARY KEY,
  merchant_registered INTEGER NOT NULL DEFAULT 1,
  profile_verified INTEGER NOT NULL DEFAULT 1,
  profile_rejected INTEGER NOT NULL DEFAULT 1,
  gift_card_purchased INTEGER NOT NULL DEFAULT 1,
  gift_card_redeemed INTEGER NOT NULL DEFAULT 1,
  system_alert INTEGER NOT NULL DEFAULT 1,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(notificationsTable).Error)
	require.NoError(t, db.Exec(preferencesTable).Error)
	require.NoError(t, db.Exec("DELETE FROM notifications").Error)
	require.NoError(t, db.Exec("DELETE FROM notification_preferences").Error)
	return db
}

func seedNotification(t *testing.T, repo Repository, mutate func(*models.Notification)) models.Notification {
	t.Helper()
	n := models.Notification{
		ID:            uuid.New(),
		RecipientID:   uuid.New(),
		RecipientType: enums.RecipientTypeMerchant,
		Type:          enums.NotificationTypeSystemAlert,
		Title:         "title",
		Message:       "message",
		CreatedAt:     time.Now().UTC(),
	}
	if mutate != nil {
		mutate(&n)
	}
	require.NoError(t, repo.Create(context.Background(), &n))
	return n
}

func TestListScopedToRecipient(t *testing.T) {
	repo := NewRepository(setupNotificationsTestDB(t))
	recipientID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		i := i
		seedNotification(t, repo, func(n *models.Notification) {
			n.RecipientID = recipientID
			n.Title = fmt.Sprintf("mine %d", i)
			n.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
	}
	seedNotification(t, repo, nil)

	rows, total, err := repo.List(context.Background(), listParams{RecipientID: recipientID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, "mine 2", rows[0].Title)
}

func TestListUnreadOnly(t *testing.T) {
	repo := NewRepository(setupNotificationsTestDB(t))
	recipientID := uuid.New()
	readAt := time.Now().UTC()

	seedNotification(t, repo, func(n *models.Notification) {
		n.RecipientID = recipientID
		n.ReadAt = &readAt
	})
	unread := seedNotification(t, repo, func(n *models.Notification) {
		n.RecipientID = recipientID
	})

	rows, total, err := repo.List(context.Background(), listParams{
		RecipientID: recipientID,
		UnreadOnly:  true,
		Limit:       10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)
}

func TestMarkReadAndCounts(t *testing.T) {
	repo := NewRepository(setupNotificationsTestDB(t))
	recipientID := uuid.New()
	ctx := context.Background()

	first := seedNotification(t, repo, func(n *models.Notification) { n.RecipientID = recipientID })
	seedNotification(t, repo, func(n *models.Notification) { n.RecipientID = recipientID })

	count, err := repo.CountUnread(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mark, err := repo.MarkRead(ctx, recipientID, first.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	// Second mark is found but already read.
	mark, err = repo.MarkRead(ctx, recipientID, first.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	// Foreign recipient never sees the row.
	mark, err = repo.MarkRead(ctx, uuid.New(), first.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, mark.Found)

	count, err = repo.CountUnread(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	updated, err := repo.MarkAllRead(ctx, recipientID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	count, err = repo.CountUnread(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteOlderThan(t *testing.T) {
	repo := NewRepository(setupNotificationsTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	seedNotification(t, repo, func(n *models.Notification) { n.CreatedAt = now.AddDate(0, 0, -40) })
	seedNotification(t, repo, func(n *models.Notification) { n.CreatedAt = now.AddDate(0, 0, -31) })
	keeper := seedNotification(t, repo, func(n *models.Notification) { n.CreatedAt = now.AddDate(0, 0, -5) })

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	rows, total, err := repo.List(ctx, listParams{RecipientID: keeper.RecipientID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
}

func TestPreferencesRoundTrip(t *testing.T) {
	repo := NewRepository(setupNotificationsTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	pref, err := repo.GetPreferences(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, pref, "missing row must come back nil, not an error")

	stored := models.NotificationPreference{
		UserID:             userID,
		MerchantRegistered: true,
		ProfileVerified:    true,
		ProfileRejected:    true,
		GiftCardPurchased:  false,
		GiftCardRedeemed:   true,
		SystemAlert:        true,
		UpdatedAt:          time.Now().UTC(),
	}
	require.NoError(t, repo.UpsertPreferences(ctx, &stored))

	pref, err = repo.GetPreferences(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.False(t, pref.GiftCardPurchased)

	stored.GiftCardPurchased = true
	require.NoError(t, repo.UpsertPreferences(ctx, &stored))
	pref, err = repo.GetPreferences(ctx, userID)
	require.NoError(t, err)
	assert.True(t, pref.GiftCardPurchased)
}
