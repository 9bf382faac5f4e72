package services

import (
	"context"
	"testing"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationListJoinsActorsAndEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.seedUser(t, "alice@example.com", "Alice")
	bob := h.seedUser(t, "bob@example.com", "Bob")
	entry := h.createEntry(t, alice.ID, entryForm("2024-03-01", "one", "two", "three"))

	require.NoError(t, h.followSvc.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, h.likeSvc.Like(ctx, bob.ID, entry.ID.Hex()))

	views, err := h.notificationSvc.List(ctx, alice.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)

	like, follow := views[0], views[1]
	assert.Equal(t, models.NotificationTypeLike, like.Type)
	require.NotNil(t, like.Actor)
	assert.Equal(t, "Bob", like.Actor.Name())
	require.NotNil(t, like.Entry)
	assert.Equal(t, entry.ID, like.Entry.ID)

	assert.Equal(t, models.NotificationTypeFollow, follow.Type)
	assert.Nil(t, follow.Entry)
	assert.Nil(t, follow.EntryID)
	require.NotNil(t, follow.Actor)
	assert.Equal(t, bob.ID, follow.Actor.ID)

	empty, err := h.notificationSvc.List(ctx, bob.ID, 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMarkReadIsScopedToRecipient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.seedUser(t, "alice@example.com", "")
	bob := h.seedUser(t, "bob@example.com", "")
	carol := h.seedUser(t, "carol@example.com", "")

	require.NoError(t, h.followSvc.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, h.followSvc.Follow(ctx, carol.ID, alice.ID))
	views, err := h.notificationSvc.List(ctx, alice.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)

	err = h.notificationSvc.MarkRead(ctx, views[0].ID, bob.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	require.NoError(t, h.notificationSvc.MarkRead(ctx, views[0].ID, alice.ID))
	unread, err := h.notificationSvc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, h.notificationSvc.MarkAllRead(ctx, alice.ID))
	unread, err = h.notificationSvc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
