package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeReportsStoredState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.seedUser(t, "alice@example.com", "")
	bob := h.seedUser(t, "bob@example.com", "")
	entry := h.createEntry(t, alice.ID, entryForm("2024-03-01", "one", "two", "three"))
	entryID := entry.ID.Hex()

	result, err := h.likeSvc.ToggleLike(ctx, bob.ID, entryID, false)
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Success: true, Liked: true, Count: 1}, result)
	assertLikeState(t, h, bob.ID, entryID, true, 1)

	// A stale hint still reports what the store holds.
	result, err = h.likeSvc.ToggleLike(ctx, bob.ID, entryID, false)
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Success: true, Liked: true, Count: 1}, result)

	result, err = h.likeSvc.ToggleLike(ctx, alice.ID, entryID, false)
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Success: true, Liked: true, Count: 2}, result)

	result, err = h.likeSvc.ToggleLike(ctx, bob.ID, entryID, true)
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Success: true, Liked: false, Count: 1}, result)
	assertLikeState(t, h, bob.ID, entryID, false, 1)

	liked, err := h.likeSvc.HasLiked(ctx, alice.ID, entryID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = h.likeSvc.HasLiked(ctx, 0, entryID)
	require.NoError(t, err)
	assert.False(t, liked)
}

type failingUnlikes struct {
	repositories.LikeRepository
}

func (failingUnlikes) DeleteLike(context.Context, string, uint) error {
	return errors.New("connection reset")
}

func assertLikeState(t *testing.T, h *harness, viewer uint, entryID string, liked bool, count int64) {
	t.Helper()
	ctx := context.Background()
	got, err := h.likeSvc.HasLiked(ctx, viewer, entryID)
	require.NoError(t, err)
	assert.Equal(t, liked, got)
	n, err := h.likeSvc.LikeCount(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, count, n)
}

func TestToggleLikeFailureKeepsHint(t *testing.T) {
	h := newHarness(t)
	bob := h.seedUser(t, "bob@example.com", "")

	result, err := h.likeSvc.ToggleLike(context.Background(), bob.ID, "65f1c0ffee00000000000000", false)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, models.LikeResult{Success: false, Liked: false, Count: 0}, result)
}

func TestToggleLikeFailureKeepsStoredLike(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.seedUser(t, "alice@example.com", "")
	bob := h.seedUser(t, "bob@example.com", "")
	entryID := h.createEntry(t, alice.ID, entryForm("2024-03-01", "one", "two", "three")).ID.Hex()
	require.NoError(t, h.likeSvc.Like(ctx, bob.ID, entryID))

	svc, err := NewLikeService(LikeServiceConfig{
		Likes:         failingUnlikes{LikeRepository: h.likes},
		Entries:       h.entries,
		Notifications: h.notifications,
	})
	require.NoError(t, err)

	result, err := svc.ToggleLike(ctx, bob.ID, entryID, true)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.False(t, result.Success)
	assert.True(t, result.Liked)
	assert.Equal(t, int64(1), result.Count)
	assertLikeState(t, h, bob.ID, entryID, true, 1)
}

func TestLikeNotifiesOwnerOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.seedUser(t, "alice@example.com", "")
	bob := h.seedUser(t, "bob@example.com", "")
	entry := h.createEntry(t, alice.ID, entryForm("2024-03-01", "one", "two", "three"))

	require.NoError(t, h.likeSvc.Like(ctx, alice.ID, entry.ID.Hex()))
	unread, err := h.notificationSvc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, h.likeSvc.Like(ctx, bob.ID, entry.ID.Hex()))
	require.NoError(t, h.likeSvc.Like(ctx, bob.ID, entry.ID.Hex()))
	unread, err = h.notificationSvc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, h.likeSvc.Unlike(ctx, bob.ID, entry.ID.Hex()))
	require.NoError(t, h.likeSvc.Unlike(ctx, bob.ID, entry.ID.Hex()))
	count, err := h.likeSvc.LikeCount(ctx, entry.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

type staleLikeCheck struct {
	repositories.LikeRepository
}

func (staleLikeCheck) HasUserLikedEntry(context.Context, string, uint) (bool, error) {
	return false, nil
}

func TestLikeRaceOnExistingLikeSucceeds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.seedUser(t, "alice@example.com", "")
	bob := h.seedUser(t, "bob@example.com", "")
	entryID := h.createEntry(t, alice.ID, entryForm("2024-03-01", "one", "two", "three")).ID.Hex()
	require.NoError(t, h.likeSvc.Like(ctx, bob.ID, entryID))

	svc, err := NewLikeService(LikeServiceConfig{
		Likes:         staleLikeCheck{LikeRepository: h.likes},
		Entries:       h.entries,
		Notifications: h.notifications,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Like(ctx, bob.ID, entryID))
	assertLikeState(t, h, bob.ID, entryID, true, 1)

	unread, err := h.notificationSvc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
