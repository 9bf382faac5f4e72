package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/auth"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/anonto42/three-good-things/backend/internal/services/servicetest"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now advances by one minute per call so records get distinct timestamps.
func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fakeVerifier struct {
	identities map[string]*auth.FirebaseIdentity
}

func (v *fakeVerifier) Verify(_ context.Context, idToken string) (*auth.FirebaseIdentity, error) {
	identity, ok := v.identities[idToken]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return identity, nil
}

type harness struct {
	profiles      *repositories.PostgresProfileRepository
	follows       *repositories.PostgresFollowRepository
	likes         *repositories.PostgresLikeRepository
	notifications repositories.NotificationRepository
	entries       *servicetest.MemoryEntryRepository
	images        *servicetest.MemoryBucket
	avatars       *servicetest.MemoryBucket
	verifier      *fakeVerifier
	tokens        *auth.TokenManager
	clock         *testClock

	entrySvc        *EntryService
	followSvc       *FollowService
	likeSvc         *LikeService
	notificationSvc *NotificationService
	profileSvc      *ProfileService
	userSvc         *UserService
	authSvc         *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := servicetest.OpenDB(t)
	h := &harness{
		profiles:      repositories.NewPostgresProfileRepository(db),
		follows:       repositories.NewPostgresFollowRepository(db),
		likes:         repositories.NewPostgresLikeRepository(db),
		notifications: repositories.NewPostgresNotificationRepository(db),
		entries:       servicetest.NewMemoryEntryRepository(),
		images:        servicetest.NewMemoryBucket("entry-images"),
		avatars:       servicetest.NewMemoryBucket("avatars"),
		verifier:      &fakeVerifier{identities: map[string]*auth.FirebaseIdentity{}},
		clock:         &testClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
	}

	var err error
	h.tokens, err = auth.NewTokenManager(auth.TokenManagerConfig{SigningSecret: []byte("test-secret")})
	require.NoError(t, err)

	h.entrySvc, err = NewEntryService(EntryServiceConfig{
		Entries:       h.entries,
		Profiles:      h.profiles,
		Likes:         h.likes,
		Notifications: h.notifications,
		Images:        h.images,
		Clock:         h.clock.Now,
	})
	require.NoError(t, err)
	h.followSvc, err = NewFollowService(FollowServiceConfig{Follows: h.follows, Profiles: h.profiles, Notifications: h.notifications})
	require.NoError(t, err)
	h.likeSvc, err = NewLikeService(LikeServiceConfig{Likes: h.likes, Entries: h.entries, Notifications: h.notifications})
	require.NoError(t, err)
	h.notificationSvc, err = NewNotificationService(NotificationServiceConfig{Notifications: h.notifications, Profiles: h.profiles, Entries: h.entries})
	require.NoError(t, err)
	h.profileSvc, err = NewProfileService(ProfileServiceConfig{Profiles: h.profiles, Avatars: h.avatars})
	require.NoError(t, err)
	h.userSvc, err = NewUserService(UserServiceConfig{Profiles: h.profiles, Follows: h.follows, Entries: h.entries})
	require.NoError(t, err)
	h.authSvc, err = NewAuthService(AuthServiceConfig{Profiles: h.profiles, Tokens: h.tokens, Firebase: h.verifier})
	require.NoError(t, err)
	return h
}

func (h *harness) seedUser(t *testing.T, email, displayName string) models.Profile {
	t.Helper()
	profile := models.Profile{Email: email}
	if displayName != "" {
		profile.DisplayName = &displayName
	}
	require.NoError(t, h.profiles.CreateProfile(context.Background(), &profile))
	return profile
}

func (h *harness) createEntry(t *testing.T, ownerID uint, form models.EntryForm) *models.Entry {
	t.Helper()
	entry, err := h.entrySvc.Create(context.Background(), ownerID, form)
	require.NoError(t, err)
	return entry
}

func entryForm(date, one, two, three string) models.EntryForm {
	return models.EntryForm{EntryDate: date, ThingOne: one, ThingTwo: two, ThingThree: three}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
