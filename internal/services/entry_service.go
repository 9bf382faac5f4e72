package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/export"
	"github.com/anonto42/three-good-things/backend/internal/imaging"
	"github.com/anonto42/three-good-things/backend/internal/metrics"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/anonto42/three-good-things/backend/internal/storage"
	"github.com/anonto42/three-good-things/backend/internal/tags"
	"github.com/anonto42/three-good-things/backend/internal/validators"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opEntryList      = "entries.list"
	opEntryGetByDate = "entries.get_by_date"
	opEntryCreate    = "entries.create"
	opEntryUpdate    = "entries.update"
	opEntryDelete    = "entries.delete"
	opEntryTimeline  = "entries.public_timeline"
	opEntryCount     = "entries.count"
	opEntrySearch    = "entries.search"
	opEntryTags      = "entries.tags"
	opEntryExport    = "entries.export"

	entryImagesBucket = "entry_images"
	imageUploadMsg    = "failed to upload image"
	entrySaveMsg      = "failed to save entry"
)

var formValidator = validators.NewValidator()

type EntryServiceConfig struct {
	Entries       repositories.EntryRepository
	Profiles      repositories.ProfileRepository
	Likes         repositories.LikeRepository
	Notifications repositories.NotificationRepository
	Images        storage.Bucket
	Clock         func() time.Time
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	StoreTimeout  time.Duration
}

// EntryService owns the lifecycle of journal entries and their images.
type EntryService struct {
	entries       repositories.EntryRepository
	profiles      repositories.ProfileRepository
	likes         repositories.LikeRepository
	notifications repositories.NotificationRepository
	images        storage.Bucket
	now           func() time.Time
	logger        *zap.Logger
	metrics       *metrics.Metrics
	timeout       time.Duration
}

func NewEntryService(cfg EntryServiceConfig) (*EntryService, error) {
	if cfg.Entries == nil || cfg.Profiles == nil || cfg.Likes == nil {
		return nil, fmt.Errorf("entries: entry, profile and like repositories required")
	}
	if cfg.Images == nil {
		return nil, fmt.Errorf("entries: image bucket required")
	}
	return &EntryService{
		entries:       cfg.Entries,
		profiles:      cfg.Profiles,
		likes:         cfg.Likes,
		notifications: cfg.Notifications,
		images:        cfg.Images,
		now:           clockOrDefault(cfg.Clock),
		logger:        loggerOrDefault(cfg.Logger),
		metrics:       cfg.Metrics,
		timeout:       storeTimeout(cfg.StoreTimeout),
	}, nil
}

// List returns the owner's entries newest date first. Empty bounds are open.
func (s *EntryService) List(ctx context.Context, ownerID uint, dateFrom, dateTo string) ([]models.Entry, error) {
	if err := checkDateRange(opEntryList, dateFrom, dateTo); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.entries.ListEntries(ctx, repositories.EntryQuery{OwnerID: ownerID, DateFrom: dateFrom, DateTo: dateTo})
	if err != nil {
		return nil, storeError(opEntryList, entryNotFoundMsg, err)
	}
	return entries, nil
}

// GetByDate returns nil without an error when the owner has no entry that day.
func (s *EntryService) GetByDate(ctx context.Context, ownerID uint, date string) (*models.Entry, error) {
	if !validDate(date) {
		return nil, newError(KindValidation, opEntryGetByDate, "date must be formatted as YYYY-MM-DD", nil)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.entries.GetEntryByDate(ctx, ownerID, date)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(opEntryGetByDate, entryNotFoundMsg, err)
	}
	return entry, nil
}

func (s *EntryService) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.entries.CountEntriesByOwner(ctx, ownerID)
	if err != nil {
		return 0, storeError(opEntryCount, entryNotFoundMsg, err)
	}
	return count, nil
}

// Create stores a new entry. Tags come from the three things and the
// gratitude note. An uploaded image is removed again if the insert fails.
func (s *EntryService) Create(ctx context.Context, ownerID uint, form models.EntryForm) (entry *models.Entry, err error) {
	defer func() { s.metrics.EntryWrite("create", err) }()

	form = form.Normalized()
	if err := formValidator.Struct(form); err != nil {
		return nil, validationError(opEntryCreate, err)
	}
	var image *imaging.Processed
	if form.Image != nil {
		if image, err = prepareEntryImage(opEntryCreate, form.Image); err != nil {
			return nil, err
		}
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now().UTC()
	record := &models.Entry{
		UserID:     ownerID,
		EntryDate:  form.EntryDate,
		ThingOne:   form.ThingOne,
		ThingTwo:   form.ThingTwo,
		ThingThree: form.ThingThree,
		Gratitude:  form.Gratitude,
		Tags:       tags.Extract(form.ThingOne, form.ThingTwo, form.ThingThree, form.Gratitude),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if image != nil {
		path, uploadErr := s.uploadImage(ctx, ownerID, image)
		if uploadErr != nil {
			return nil, newError(KindStorage, opEntryCreate, imageUploadMsg, uploadErr)
		}
		record.ImagePath = path
		record.ImageURL = s.images.PublicURL(path)
	}

	if err := s.entries.CreateEntry(ctx, record); err != nil {
		if record.ImagePath != "" {
			s.releaseImage(ctx, record.ImagePath)
		}
		return nil, newError(KindPersistence, opEntryCreate, entrySaveMsg, err)
	}
	return record, nil
}

// Update replaces the editable fields of an entry owned by ownerID.
// A new image replaces the previous one; RemoveImage drops it.
func (s *EntryService) Update(ctx context.Context, ownerID uint, entryID string, form models.EntryForm) (entry *models.Entry, err error) {
	defer func() { s.metrics.EntryWrite("update", err) }()

	form = form.Normalized()
	if err := formValidator.Struct(form); err != nil {
		return nil, validationError(opEntryUpdate, err)
	}
	var image *imaging.Processed
	if form.Image != nil {
		if image, err = prepareEntryImage(opEntryUpdate, form.Image); err != nil {
			return nil, err
		}
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	existing, err := s.ownedEntry(ctx, opEntryUpdate, ownerID, entryID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.EntryDate = form.EntryDate
	updated.ThingOne = form.ThingOne
	updated.ThingTwo = form.ThingTwo
	updated.ThingThree = form.ThingThree
	updated.Gratitude = form.Gratitude
	updated.Tags = tags.Extract(form.ThingOne, form.ThingTwo, form.ThingThree, form.Gratitude)
	updated.UpdatedAt = s.now().UTC()

	var uploadedPath, staleImagePath string
	switch {
	case image != nil:
		if existing.ImagePath != "" {
			s.releaseImage(ctx, existing.ImagePath)
		}
		path, uploadErr := s.uploadImage(ctx, ownerID, image)
		if uploadErr != nil {
			if existing.ImagePath != "" {
				s.forgetImage(ctx, *existing)
			}
			return nil, newError(KindStorage, opEntryUpdate, imageUploadMsg, uploadErr)
		}
		uploadedPath = path
		updated.ImagePath = path
		updated.ImageURL = s.images.PublicURL(path)
	case form.RemoveImage && existing.ImagePath != "":
		staleImagePath = existing.ImagePath
		updated.ImagePath = ""
		updated.ImageURL = ""
	}

	if err := s.entries.UpdateEntry(ctx, &updated); err != nil {
		if uploadedPath != "" {
			s.releaseImage(ctx, uploadedPath)
			if existing.ImagePath != "" {
				s.forgetImage(ctx, *existing)
			}
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(KindNotFound, opEntryUpdate, entryNotFoundMsg, err)
		}
		return nil, newError(KindPersistence, opEntryUpdate, entrySaveMsg, err)
	}
	if staleImagePath != "" {
		s.releaseImage(ctx, staleImagePath)
	}
	return &updated, nil
}

// Delete removes the entry, then its image and social records. Cleanup
// failures are logged and do not fail the delete.
func (s *EntryService) Delete(ctx context.Context, ownerID uint, entryID string) (err error) {
	defer func() { s.metrics.EntryWrite("delete", err) }()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	existing, err := s.ownedEntry(ctx, opEntryDelete, ownerID, entryID)
	if err != nil {
		return err
	}
	if err := s.entries.DeleteEntry(ctx, entryID); err != nil {
		return storeError(opEntryDelete, entryNotFoundMsg, err)
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if existing.ImagePath != "" {
		s.releaseImage(cleanupCtx, existing.ImagePath)
	}
	if err := s.likes.DeleteLikesByEntryID(cleanupCtx, entryID); err != nil {
		s.logger.Warn("failed to delete likes of removed entry", zap.String("entry_id", entryID), zap.Error(err))
	}
	if s.notifications != nil {
		if err := s.notifications.DeleteByEntryID(cleanupCtx, entryID); err != nil {
			s.logger.Warn("failed to delete notifications of removed entry", zap.String("entry_id", entryID), zap.Error(err))
		}
	}
	return nil
}

// PublicTimeline lists every user's entries newest first, annotated with
// author, like count and the viewer's like state.
func (s *EntryService) PublicTimeline(ctx context.Context, viewerID uint, limit, offset int) ([]models.TimelineEntry, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	limit, offset = page(limit, offset)
	entries, err := s.entries.ListRecentEntries(ctx, int64(offset), int64(limit))
	if err != nil {
		return nil, storeError(opEntryTimeline, entryNotFoundMsg, err)
	}
	timeline := make([]models.TimelineEntry, 0, len(entries))
	if len(entries) == 0 {
		return timeline, nil
	}

	authorIDs := make([]uint, 0, len(entries))
	seenAuthors := make(map[uint]bool)
	entryIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !seenAuthors[entry.UserID] {
			seenAuthors[entry.UserID] = true
			authorIDs = append(authorIDs, entry.UserID)
		}
		entryIDs = append(entryIDs, entry.ID.Hex())
	}

	var (
		authors []models.Profile
		counts  map[string]int64
		liked   = map[string]bool{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = s.profiles.GetProfilesByIDs(gctx, authorIDs)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.likes.GetLikesCountByEntryIDs(gctx, entryIDs)
		return err
	})
	if viewerID != 0 {
		g.Go(func() error {
			var err error
			liked, err = s.likes.GetLikedEntryIDs(gctx, viewerID, entryIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError(opEntryTimeline, entryNotFoundMsg, err)
	}

	authorsByID := make(map[uint]*models.Profile, len(authors))
	for i := range authors {
		authorsByID[authors[i].ID] = &authors[i]
	}
	for _, entry := range entries {
		id := entry.ID.Hex()
		timeline = append(timeline, models.TimelineEntry{
			Entry:         entry,
			Author:        authorsByID[entry.UserID],
			LikeCount:     counts[id],
			LikedByViewer: liked[id],
		})
	}
	return timeline, nil
}

// Search narrows the owner's entries by date range and tags in the store,
// then by free text over the three things.
func (s *EntryService) Search(ctx context.Context, ownerID uint, filters models.EntryFilters) ([]models.Entry, error) {
	if err := formValidator.Struct(filters); err != nil {
		return nil, validationError(opEntrySearch, err)
	}
	if err := checkDateRange(opEntrySearch, filters.DateFrom, filters.DateTo); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.entries.ListEntries(ctx, repositories.EntryQuery{
		OwnerID:  ownerID,
		DateFrom: filters.DateFrom,
		DateTo:   filters.DateTo,
		Tags:     normalizeTags(filters.Tags),
	})
	if err != nil {
		return nil, storeError(opEntrySearch, entryNotFoundMsg, err)
	}

	query := strings.ToLower(strings.TrimSpace(filters.Query))
	if query == "" {
		return entries, nil
	}
	matched := make([]models.Entry, 0, len(entries))
	for _, entry := range entries {
		for _, thing := range entry.Things() {
			if strings.Contains(strings.ToLower(thing), query) {
				matched = append(matched, entry)
				break
			}
		}
	}
	return matched, nil
}

// UniqueTags lists the distinct tags across all of the owner's entries.
func (s *EntryService) UniqueTags(ctx context.Context, ownerID uint) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.entries.ListEntries(ctx, repositories.EntryQuery{OwnerID: ownerID})
	if err != nil {
		return nil, storeError(opEntryTags, entryNotFoundMsg, err)
	}
	return tags.Unique(entries), nil
}

// Export renders the owner's entries in the given date range.
func (s *EntryService) Export(ctx context.Context, ownerID uint, format export.Format, dateFrom, dateTo string) (export.File, error) {
	if err := checkDateRange(opEntryExport, dateFrom, dateTo); err != nil {
		return export.File{}, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.entries.ListEntries(ctx, repositories.EntryQuery{OwnerID: ownerID, DateFrom: dateFrom, DateTo: dateTo})
	if err != nil {
		return export.File{}, storeError(opEntryExport, entryNotFoundMsg, err)
	}
	file, err := export.Render(entries, format, s.now())
	if err != nil {
		return export.File{}, newError(KindValidation, opEntryExport, err.Error(), err)
	}
	return file, nil
}

func (s *EntryService) ownedEntry(ctx context.Context, op string, ownerID uint, entryID string) (*models.Entry, error) {
	entry, err := s.entries.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, storeError(op, entryNotFoundMsg, err)
	}
	if entry.UserID != ownerID {
		return nil, newError(KindNotFound, op, entryNotFoundMsg, repositories.ErrNotFound)
	}
	return entry, nil
}

func (s *EntryService) uploadImage(ctx context.Context, ownerID uint, image *imaging.Processed) (string, error) {
	path := fmt.Sprintf("%d/%d_%s.%s", ownerID, s.now().UnixMilli(), uuid.NewString()[:8], image.Extension)
	if err := s.images.Upload(ctx, path, image.Data, image.ContentType); err != nil {
		return "", err
	}
	return path, nil
}

// releaseImage deletes a stored image, logging instead of failing.
func (s *EntryService) releaseImage(ctx context.Context, path string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), path); err != nil {
		s.metrics.CleanupFailure(entryImagesBucket)
		s.logger.Warn("failed to delete entry image", zap.String("path", path), zap.Error(err))
	}
}

// forgetImage clears the image fields of a stored entry whose image was
// already deleted, so the record never points at a missing object.
func (s *EntryService) forgetImage(ctx context.Context, entry models.Entry) {
	entry.ImagePath = ""
	entry.ImageURL = ""
	entry.UpdatedAt = s.now().UTC()
	if err := s.entries.UpdateEntry(context.WithoutCancel(ctx), &entry); err != nil {
		s.logger.Warn("failed to clear image of entry", zap.String("entry_id", entry.ID.Hex()), zap.Error(err))
	}
}

func prepareEntryImage(op string, upload *models.ImageUpload) (*imaging.Processed, error) {
	processed, err := imaging.PrepareEntryImage(upload.Data)
	if err != nil {
		return nil, newError(KindValidation, op, err.Error(), err)
	}
	return &processed, nil
}

func validDate(value string) bool {
	return models.ValidEntryDate(value)
}

func checkDateRange(op, dateFrom, dateTo string) error {
	if err := models.CheckDateRange(dateFrom, dateTo); err != nil {
		return newError(KindValidation, op, err.Error(), err)
	}
	return nil
}

func normalizeTags(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if !strings.HasPrefix(value, "#") {
			value = "#" + value
		}
		normalized = append(normalized, value)
	}
	return normalized
}
