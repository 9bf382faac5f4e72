package services

import (
	"bytes"
	"context"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateDisplayName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "ada@example.com", "")

	profile, err := h.profileSvc.UpdateDisplayName(ctx, user.ID, "  Ada Lovelace ")
	require.NoError(t, err)
	require.NotNil(t, profile.DisplayName)
	assert.Equal(t, "Ada Lovelace", *profile.DisplayName)

	stored, err := h.profileSvc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.Name())

	_, err = h.profileSvc.UpdateDisplayName(ctx, user.ID, "   ")
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = h.profileSvc.UpdateDisplayName(ctx, user.ID, strings.Repeat("あ", 51))
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = h.profileSvc.UpdateDisplayName(ctx, user.ID, strings.Repeat("あ", 50))
	assert.NoError(t, err)

	_, err = h.profileSvc.Get(ctx, 999)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "ada@example.com", "")
	other := h.seedUser(t, "bob@example.com", "")
	require.NoError(t, h.avatars.Upload(ctx, "1/old.png", []byte("old"), "image/png"))
	require.NoError(t, h.avatars.Upload(ctx, "2/avatar.jpg", []byte("bob"), "image/jpeg"))

	profile, err := h.profileSvc.UploadAvatar(ctx, user.ID, models.ImageUpload{Filename: "me.png", Data: pngBytes(t, 600, 400)})
	require.NoError(t, err)

	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, h.avatars.PublicURL("1/avatar.jpg"), *profile.AvatarURL)
	assert.Equal(t, []string{"1/avatar.jpg", "2/avatar.jpg"}, h.avatars.Paths())

	stored, ok := h.avatars.Object("1/avatar.jpg")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", stored.ContentType)
	config, err := jpeg.DecodeConfig(bytes.NewReader(stored.Data))
	require.NoError(t, err)
	assert.Equal(t, 300, config.Width)
	assert.Equal(t, 300, config.Height)

	reloaded, err := h.profileSvc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.AvatarURL, reloaded.AvatarURL)

	cleared, err := h.profileSvc.DeleteAvatar(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.AvatarURL)
	assert.Equal(t, []string{"2/avatar.jpg"}, h.avatars.Paths())

	untouched, err := h.profileSvc.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, untouched.AvatarURL)
}

func TestUploadAvatarRejectsInvalidFiles(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "ada@example.com", "")

	_, err := h.profileSvc.UploadAvatar(context.Background(), user.ID, models.ImageUpload{Data: []byte("GIF? no, text")})
	assert.Equal(t, KindValidation, KindOf(err))

	tooLarge := make([]byte, 2<<20+1)
	_, err = h.profileSvc.UploadAvatar(context.Background(), user.ID, models.ImageUpload{Data: tooLarge})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "image must be 2MB or smaller", MessageOf(err))

	assert.Empty(t, h.avatars.Paths())
}
