package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/metrics"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"go.uber.org/zap"
)

const (
	opFollow         = "follows.follow"
	opUnfollow       = "follows.unfollow"
	opToggleFollow   = "follows.toggle"
	opFollowState    = "follows.is_following"
	opFollowerCount  = "follows.follower_count"
	opFollowingCount = "follows.following_count"
	opFollowerList   = "follows.followers"
	opFollowingList  = "follows.following"
	userNotFoundMsg  = "user not found"
	followFailedMsg  = "failed to update follow"
)

type FollowServiceConfig struct {
	Follows       repositories.FollowRepository
	Profiles      repositories.ProfileRepository
	Notifications repositories.NotificationRepository
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	StoreTimeout  time.Duration
}

// FollowService manages the directed follow graph between users.
type FollowService struct {
	follows       repositories.FollowRepository
	profiles      repositories.ProfileRepository
	notifications repositories.NotificationRepository
	logger        *zap.Logger
	metrics       *metrics.Metrics
	timeout       time.Duration
}

func NewFollowService(cfg FollowServiceConfig) (*FollowService, error) {
	if cfg.Follows == nil || cfg.Profiles == nil {
		return nil, fmt.Errorf("follows: follow and profile repositories required")
	}
	return &FollowService{
		follows:       cfg.Follows,
		profiles:      cfg.Profiles,
		notifications: cfg.Notifications,
		logger:        loggerOrDefault(cfg.Logger),
		metrics:       cfg.Metrics,
		timeout:       storeTimeout(cfg.StoreTimeout),
	}, nil
}

// IsFollowing is false for anonymous viewers.
func (s *FollowService) IsFollowing(ctx context.Context, viewerID, targetID uint) (bool, error) {
	if viewerID == 0 {
		return false, nil
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	following, err := s.follows.IsFollowing(ctx, viewerID, targetID)
	if err != nil {
		return false, storeError(opFollowState, userNotFoundMsg, err)
	}
	return following, nil
}

func (s *FollowService) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return 0, storeError(opFollowerCount, userNotFoundMsg, err)
	}
	return count, nil
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return 0, storeError(opFollowingCount, userNotFoundMsg, err)
	}
	return count, nil
}

// Follow adds the viewer -> target edge and notifies the target.
// Following someone already followed succeeds without a new notification.
func (s *FollowService) Follow(ctx context.Context, viewerID, targetID uint) (err error) {
	defer func() { s.metrics.SocialAction("follow", err) }()

	if viewerID == targetID {
		return newError(KindDomain, opFollow, ErrSelfFollow.Error(), ErrSelfFollow)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.profiles.GetProfileByID(ctx, targetID); err != nil {
		return storeError(opFollow, userNotFoundMsg, err)
	}
	already, err := s.follows.IsFollowing(ctx, viewerID, targetID)
	if err != nil {
		return storeError(opFollow, userNotFoundMsg, err)
	}
	if already {
		return nil
	}
	if err := s.follows.CreateFollow(ctx, &models.Follow{FollowerID: viewerID, FollowingID: targetID}); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return nil
		}
		return newError(KindPersistence, opFollow, followFailedMsg, err)
	}

	notify(ctx, s.notifications, s.logger, &models.Notification{
		RecipientID: targetID,
		ActorID:     viewerID,
		Type:        models.NotificationTypeFollow,
	})
	return nil
}

// Unfollow removes the edge; removing a missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, viewerID, targetID uint) (err error) {
	defer func() { s.metrics.SocialAction("unfollow", err) }()

	if viewerID == targetID {
		return newError(KindDomain, opUnfollow, ErrSelfFollow.Error(), ErrSelfFollow)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.follows.DeleteFollow(ctx, viewerID, targetID); err != nil {
		return newError(KindPersistence, opUnfollow, followFailedMsg, err)
	}
	return nil
}

// ToggleFollow performs the inverse of currentlyFollowing. On failure the
// result keeps the hinted state and the error is returned alongside it.
func (s *FollowService) ToggleFollow(ctx context.Context, viewerID, targetID uint, currentlyFollowing bool) (models.FollowResult, error) {
	var err error
	if currentlyFollowing {
		err = s.Unfollow(ctx, viewerID, targetID)
	} else {
		err = s.Follow(ctx, viewerID, targetID)
	}
	if err != nil {
		s.logger.Info("follow toggle failed",
			zap.String("op", opToggleFollow),
			zap.Uint("viewer_id", viewerID),
			zap.Uint("target_id", targetID),
			zap.Error(err))
		return models.FollowResult{Success: false, Following: currentlyFollowing}, err
	}
	return models.FollowResult{Success: true, Following: !currentlyFollowing}, nil
}

func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.follows.GetFollowers(ctx, userID)
	if err != nil {
		return nil, storeError(opFollowerList, userNotFoundMsg, err)
	}
	return profiles, nil
}

func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, storeError(opFollowingList, userNotFoundMsg, err)
	}
	return profiles, nil
}
