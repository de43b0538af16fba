package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/pagination"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  job_card_id TEXT,
  notification_type TEXT NOT NULL DEFAULT 'info',
  channel TEXT NOT NULL DEFAULT 'in_app',
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  data TEXT,
  is_read INTEGER NOT NULL DEFAULT 0,
  read_at DATETIME,
  is_sent INTEGER NOT NULL DEFAULT 0,
  sent_at DATETIME,
  created_at DATETIME NOT NULL
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time, read bool) models.Notification {
	t.Helper()

	row := models.Notification{
		ID:               uuid.New(),
		UserID:           userID,
		NotificationType: enums.NotificationTypeInfo,
		Channel:          enums.NotificationChannelInApp,
		Title:            "status changed",
		Message:          "your job moved forward",
		IsRead:           read,
		CreatedAt:        createdAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestListForUserOrdersNewestFirst(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := seedNotification(t, db, userID, base, false)
	newer := seedNotification(t, db, userID, base.Add(time.Hour), false)
	seedNotification(t, db, uuid.New(), base, false)

	rows, next, err := repo.ListForUser(ctx, userID, false, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
	assert.Nil(t, next)
}

func TestListForUserPaginatesWithCursor(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedNotification(t, db, userID, base.Add(time.Duration(i)*time.Minute), false)
	}

	first, next, err := repo.ListForUser(ctx, userID, false, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, next)

	second, last, err := repo.ListForUser(ctx, userID, false, pagination.Params{
		Limit:  2,
		Cursor: pagination.EncodeCursor(*next),
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, last)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.NotEqual(t, first[1].ID, second[0].ID)
}

func TestListForUserUnreadOnly(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedNotification(t, db, userID, base, true)
	unread := seedNotification(t, db, userID, base.Add(time.Minute), false)

	rows, _, err := repo.ListForUser(ctx, userID, true, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)

	count, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkReadSetsTimestamp(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	row := seedNotification(t, db, userID, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), false)
	readAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRead(ctx, row.ID, readAt))

	stored, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
	require.NotNil(t, stored.ReadAt)
	assert.WithinDuration(t, readAt, *stored.ReadAt, time.Second)
}

func TestMarkAllReadOnlyTouchesOwner(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedNotification(t, db, owner, base, false)
	seedNotification(t, db, owner, base.Add(time.Minute), false)
	seedNotification(t, db, other, base, false)

	require.NoError(t, repo.MarkAllRead(ctx, owner, base.Add(time.Hour)))

	ownerCount, err := repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, ownerCount)

	otherCount, err := repo.CountUnread(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherCount)
}
