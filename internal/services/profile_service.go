package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/three-good-things/backend/internal/imaging"
	"github.com/anonto42/three-good-things/backend/internal/metrics"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/anonto42/three-good-things/backend/internal/storage"
	"go.uber.org/zap"
)

const (
	opProfileGet          = "profiles.get"
	opProfileDisplayName  = "profiles.update_display_name"
	opProfileUploadAvatar = "profiles.upload_avatar"
	opProfileDeleteAvatar = "profiles.delete_avatar"

	avatarsBucket      = "avatars"
	avatarFileName     = "avatar.jpg"
	maxDisplayNameRune = 50
)

type ProfileServiceConfig struct {
	Profiles     repositories.ProfileRepository
	Avatars      storage.Bucket
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	StoreTimeout time.Duration
}

// ProfileService edits the signed-in user's own profile.
type ProfileService struct {
	profiles repositories.ProfileRepository
	avatars  storage.Bucket
	logger   *zap.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func NewProfileService(cfg ProfileServiceConfig) (*ProfileService, error) {
	if cfg.Profiles == nil || cfg.Avatars == nil {
		return nil, fmt.Errorf("profiles: profile repository and avatar bucket required")
	}
	return &ProfileService{
		profiles: cfg.Profiles,
		avatars:  cfg.Avatars,
		logger:   loggerOrDefault(cfg.Logger),
		metrics:  cfg.Metrics,
		timeout:  storeTimeout(cfg.StoreTimeout),
	}, nil
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, storeError(opProfileGet, userNotFoundMsg, err)
	}
	return profile, nil
}

// UpdateDisplayName sets a 1 to 50 character display name.
func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID uint, name string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindValidation, opProfileDisplayName, "display name is required", nil)
	}
	if utf8.RuneCountInString(name) > maxDisplayNameRune {
		return nil, newError(KindValidation, opProfileDisplayName, "display name must be at most 50 characters", nil)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, storeError(opProfileDisplayName, userNotFoundMsg, err)
	}
	profile.DisplayName = &name
	if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
		return nil, newError(KindPersistence, opProfileDisplayName, "failed to update profile", err)
	}
	return profile, nil
}

// UploadAvatar replaces the user's avatar with a 300x300 JPEG crop of the
// upload, stored at <user>/avatar.jpg.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint, upload models.ImageUpload) (*models.Profile, error) {
	processed, err := imaging.PrepareAvatar(upload.Data)
	if err != nil {
		return nil, newError(KindValidation, opProfileUploadAvatar, err.Error(), err)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, storeError(opProfileUploadAvatar, userNotFoundMsg, err)
	}

	path := fmt.Sprintf("%d/%s", userID, avatarFileName)
	s.removeAvatars(ctx, userID, path)
	if err := s.avatars.Upload(ctx, path, processed.Data, processed.ContentType); err != nil {
		return nil, newError(KindStorage, opProfileUploadAvatar, imageUploadMsg, err)
	}

	url := s.avatars.PublicURL(path)
	profile.AvatarURL = &url
	if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
		return nil, newError(KindPersistence, opProfileUploadAvatar, "failed to update profile", err)
	}
	return profile, nil
}

// DeleteAvatar removes every stored avatar and clears avatar_url.
func (s *ProfileService) DeleteAvatar(ctx context.Context, userID uint) (*models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, storeError(opProfileDeleteAvatar, userNotFoundMsg, err)
	}
	s.removeAvatars(ctx, userID, "")
	profile.AvatarURL = nil
	if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
		return nil, newError(KindPersistence, opProfileDeleteAvatar, "failed to update profile", err)
	}
	return profile, nil
}

// removeAvatars deletes the objects under <user>/ except keep, which is
// overwritten in place. Failures are logged.
func (s *ProfileService) removeAvatars(ctx context.Context, userID uint, keep string) {
	ctx = context.WithoutCancel(ctx)
	paths, err := s.avatars.List(ctx, fmt.Sprintf("%d/", userID))
	if err != nil {
		s.metrics.CleanupFailure(avatarsBucket)
		s.logger.Warn("failed to list avatars", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	for _, path := range paths {
		if path == keep {
			continue
		}
		if err := s.avatars.Delete(ctx, path); err != nil {
			s.metrics.CleanupFailure(avatarsBucket)
			s.logger.Warn("failed to delete avatar", zap.String("path", path), zap.Error(err))
		}
	}
}
