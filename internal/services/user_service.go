package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opUserSearch    = "users.search"
	opUserProfile   = "users.public_profile"
	opUserSuggested = "users.suggested"

	searchResultLimit = 20
)

type UserServiceConfig struct {
	Profiles     repositories.ProfileRepository
	Follows      repositories.FollowRepository
	Entries      repositories.EntryRepository
	Logger       *zap.Logger
	StoreTimeout time.Duration
}

// UserService finds other users and their public profiles.
type UserService struct {
	profiles repositories.ProfileRepository
	follows  repositories.FollowRepository
	entries  repositories.EntryRepository
	logger   *zap.Logger
	timeout  time.Duration
}

func NewUserService(cfg UserServiceConfig) (*UserService, error) {
	if cfg.Profiles == nil || cfg.Follows == nil || cfg.Entries == nil {
		return nil, fmt.Errorf("users: profile, follow and entry repositories required")
	}
	return &UserService{
		profiles: cfg.Profiles,
		follows:  cfg.Follows,
		entries:  cfg.Entries,
		logger:   loggerOrDefault(cfg.Logger),
		timeout:  storeTimeout(cfg.StoreTimeout),
	}, nil
}

// Search matches display name or email, case-insensitively, excluding the
// viewer. Each result carries the follow state in both directions.
func (s *UserService) Search(ctx context.Context, viewerID uint, query string) ([]models.UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserSearchResult{}, nil
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.profiles.SearchProfiles(ctx, query, viewerID, searchResultLimit)
	if err != nil {
		return nil, storeError(opUserSearch, userNotFoundMsg, err)
	}
	results := make([]models.UserSearchResult, 0, len(profiles))
	if len(profiles) == 0 {
		return results, nil
	}

	ids := make([]uint, len(profiles))
	for i, profile := range profiles {
		ids[i] = profile.ID
	}
	var following, followedBy map[uint]bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		following, err = s.follows.FilterFollowing(gctx, viewerID, ids)
		return err
	})
	g.Go(func() error {
		var err error
		followedBy, err = s.follows.FilterFollowers(gctx, viewerID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(opUserSearch, userNotFoundMsg, err)
	}

	for _, profile := range profiles {
		results = append(results, models.UserSearchResult{
			Profile:      profile,
			IsFollowing:  following[profile.ID],
			IsFollowedBy: followedBy[profile.ID],
		})
	}
	return results, nil
}

// PublicProfile returns the user's profile with follower, following and
// entry counts. IsFollowing is set when a different viewer is signed in.
func (s *UserService) PublicProfile(ctx context.Context, viewerID, userID uint) (*models.ProfileWithStats, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, storeError(opUserProfile, userNotFoundMsg, err)
	}

	stats := &models.ProfileWithStats{Profile: *profile}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.FollowerCount, err = s.follows.GetFollowersCount(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats.FollowingCount, err = s.follows.GetFollowingCount(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats.EntryCount, err = s.entries.CountEntriesByOwner(gctx, userID)
		return err
	})
	if viewerID != 0 && viewerID != userID {
		g.Go(func() error {
			var err error
			stats.IsFollowing, err = s.follows.IsFollowing(gctx, viewerID, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError(opUserProfile, userNotFoundMsg, err)
	}
	return stats, nil
}

// Suggested lists users the viewer does not follow yet.
func (s *UserService) Suggested(ctx context.Context, viewerID uint, limit int) ([]models.Profile, error) {
	limit, _ = page(limit, 0)
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	followingIDs, err := s.follows.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, storeError(opUserSuggested, userNotFoundMsg, err)
	}
	exclude := append(followingIDs, viewerID)
	profiles, err := s.profiles.ListProfilesExcluding(ctx, exclude, limit)
	if err != nil {
		return nil, storeError(opUserSuggested, userNotFoundMsg, err)
	}
	return profiles, nil
}
