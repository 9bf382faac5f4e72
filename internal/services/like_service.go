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
	opLike           = "likes.like"
	opUnlike         = "likes.unlike"
	opToggleLike     = "likes.toggle"
	opLikeCount      = "likes.count"
	opHasLiked       = "likes.has_liked"
	entryNotFoundMsg = "entry not found"
	likeFailedMsg    = "failed to update like"
)

type LikeServiceConfig struct {
	Likes         repositories.LikeRepository
	Entries       repositories.EntryRepository
	Notifications repositories.NotificationRepository
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	StoreTimeout  time.Duration
}

// LikeService records likes on entries.
type LikeService struct {
	likes         repositories.LikeRepository
	entries       repositories.EntryRepository
	notifications repositories.NotificationRepository
	logger        *zap.Logger
	metrics       *metrics.Metrics
	timeout       time.Duration
}

func NewLikeService(cfg LikeServiceConfig) (*LikeService, error) {
	if cfg.Likes == nil || cfg.Entries == nil {
		return nil, fmt.Errorf("likes: like and entry repositories required")
	}
	return &LikeService{
		likes:         cfg.Likes,
		entries:       cfg.Entries,
		notifications: cfg.Notifications,
		logger:        loggerOrDefault(cfg.Logger),
		metrics:       cfg.Metrics,
		timeout:       storeTimeout(cfg.StoreTimeout),
	}, nil
}

func (s *LikeService) LikeCount(ctx context.Context, entryID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.likes.GetLikesCountByEntryID(ctx, entryID)
	if err != nil {
		return 0, storeError(opLikeCount, entryNotFoundMsg, err)
	}
	return count, nil
}

// HasLiked is false for anonymous viewers.
func (s *LikeService) HasLiked(ctx context.Context, viewerID uint, entryID string) (bool, error) {
	if viewerID == 0 {
		return false, nil
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	liked, err := s.likes.HasUserLikedEntry(ctx, entryID, viewerID)
	if err != nil {
		return false, storeError(opHasLiked, entryNotFoundMsg, err)
	}
	return liked, nil
}

// Like records the viewer's like and notifies the entry owner unless the
// viewer owns the entry. Liking twice is a no-op.
func (s *LikeService) Like(ctx context.Context, viewerID uint, entryID string) (err error) {
	defer func() { s.metrics.SocialAction("like", err) }()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.entries.GetEntryByID(ctx, entryID)
	if err != nil {
		return storeError(opLike, entryNotFoundMsg, err)
	}
	already, err := s.likes.HasUserLikedEntry(ctx, entryID, viewerID)
	if err != nil {
		return storeError(opLike, entryNotFoundMsg, err)
	}
	if already {
		return nil
	}
	if err := s.likes.CreateLike(ctx, &models.Like{EntryID: entryID, UserID: viewerID}); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return nil
		}
		return newError(KindPersistence, opLike, likeFailedMsg, err)
	}

	notify(ctx, s.notifications, s.logger, &models.Notification{
		RecipientID: entry.UserID,
		ActorID:     viewerID,
		Type:        models.NotificationTypeLike,
		EntryID:     &entryID,
	})
	return nil
}

func (s *LikeService) Unlike(ctx context.Context, viewerID uint, entryID string) (err error) {
	defer func() { s.metrics.SocialAction("unlike", err) }()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.likes.DeleteLike(ctx, entryID, viewerID); err != nil {
		return newError(KindPersistence, opUnlike, likeFailedMsg, err)
	}
	return nil
}

// ToggleLike performs the inverse of currentlyLiked and reports the stored
// like count and state afterwards. On failure liked keeps the hinted state.
func (s *LikeService) ToggleLike(ctx context.Context, viewerID uint, entryID string, currentlyLiked bool) (models.LikeResult, error) {
	var err error
	if currentlyLiked {
		err = s.Unlike(ctx, viewerID, entryID)
	} else {
		err = s.Like(ctx, viewerID, entryID)
	}

	result := models.LikeResult{Success: err == nil, Liked: currentlyLiked}
	if err == nil {
		result.Liked = !currentlyLiked
		if liked, refreshErr := s.HasLiked(ctx, viewerID, entryID); refreshErr == nil {
			result.Liked = liked
		}
	} else {
		s.logger.Info("like toggle failed",
			zap.String("op", opToggleLike),
			zap.Uint("viewer_id", viewerID),
			zap.String("entry_id", entryID),
			zap.Error(err))
	}
	if count, countErr := s.LikeCount(ctx, entryID); countErr == nil {
		result.Count = count
	}
	return result, err
}
