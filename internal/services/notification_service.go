package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opNotificationList        = "notifications.list"
	opNotificationUnreadCount = "notifications.unread_count"
	opNotificationMarkRead    = "notifications.mark_read"
	opNotificationMarkAllRead = "notifications.mark_all_read"
)

type NotificationServiceConfig struct {
	Notifications repositories.NotificationRepository
	Profiles      repositories.ProfileRepository
	Entries       repositories.EntryRepository
	Logger        *zap.Logger
	StoreTimeout  time.Duration
}

// NotificationService reads and acknowledges a user's notifications.
type NotificationService struct {
	notifications repositories.NotificationRepository
	profiles      repositories.ProfileRepository
	entries       repositories.EntryRepository
	logger        *zap.Logger
	timeout       time.Duration
}

func NewNotificationService(cfg NotificationServiceConfig) (*NotificationService, error) {
	if cfg.Notifications == nil || cfg.Profiles == nil || cfg.Entries == nil {
		return nil, fmt.Errorf("notifications: notification, profile and entry repositories required")
	}
	return &NotificationService{
		notifications: cfg.Notifications,
		profiles:      cfg.Profiles,
		entries:       cfg.Entries,
		logger:        loggerOrDefault(cfg.Logger),
		timeout:       storeTimeout(cfg.StoreTimeout),
	}, nil
}

// List returns the newest notifications first, joined with the actor
// profile and, for likes, the liked entry.
func (s *NotificationService) List(ctx context.Context, recipientID uint, limit, offset int) ([]models.NotificationView, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	limit, offset = page(limit, offset)
	notifications, err := s.notifications.GetByRecipientID(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, storeError(opNotificationList, "notifications not found", err)
	}
	views := make([]models.NotificationView, 0, len(notifications))
	if len(notifications) == 0 {
		return views, nil
	}

	actorIDs := make([]uint, 0, len(notifications))
	entryIDs := make([]string, 0)
	seenActors := make(map[uint]bool)
	seenEntries := make(map[string]bool)
	for _, n := range notifications {
		if !seenActors[n.ActorID] {
			seenActors[n.ActorID] = true
			actorIDs = append(actorIDs, n.ActorID)
		}
		if n.Type == models.NotificationTypeLike && n.EntryID != nil && !seenEntries[*n.EntryID] {
			seenEntries[*n.EntryID] = true
			entryIDs = append(entryIDs, *n.EntryID)
		}
	}

	var actors []models.Profile
	var entries []models.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actors, err = s.profiles.GetProfilesByIDs(gctx, actorIDs)
		return err
	})
	if len(entryIDs) > 0 {
		g.Go(func() error {
			var err error
			entries, err = s.entries.GetEntriesByIDs(gctx, entryIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError(opNotificationList, "notifications not found", err)
	}

	actorsByID := make(map[uint]*models.Profile, len(actors))
	for i := range actors {
		actorsByID[actors[i].ID] = &actors[i]
	}
	entriesByID := make(map[string]*models.Entry, len(entries))
	for i := range entries {
		entriesByID[entries[i].ID.Hex()] = &entries[i]
	}

	for _, n := range notifications {
		view := models.NotificationView{Notification: n, Actor: actorsByID[n.ActorID]}
		if n.Type == models.NotificationTypeLike && n.EntryID != nil {
			view.Entry = entriesByID[*n.EntryID]
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.notifications.GetUnreadCount(ctx, recipientID)
	if err != nil {
		return 0, storeError(opNotificationUnreadCount, "notifications not found", err)
	}
	return count, nil
}

// MarkRead marks one notification read. Notifications of other users are
// reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, recipientID uint) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.notifications.MarkAsRead(ctx, notificationID, recipientID)
	if err != nil {
		return storeError(opNotificationMarkRead, "notification not found", err)
	}
	if rows == 0 {
		return newError(KindNotFound, opNotificationMarkRead, "notification not found", repositories.ErrNotFound)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.notifications.MarkAllAsRead(ctx, recipientID); err != nil {
		return storeError(opNotificationMarkAllRead, "notifications not found", err)
	}
	return nil
}

// notify records a notification; failures are logged and swallowed.
func notify(ctx context.Context, repo repositories.NotificationRepository, logger *zap.Logger, notification *models.Notification) {
	if repo == nil || notification.RecipientID == notification.ActorID {
		return
	}
	if err := repo.CreateNotification(ctx, notification); err != nil {
		logger.Warn("failed to create notification",
			zap.String("type", notification.Type),
			zap.Uint("recipient_id", notification.RecipientID),
			zap.Uint("actor_id", notification.ActorID),
			zap.Error(err))
	}
}
