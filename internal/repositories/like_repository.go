package repositories

import (
	"context"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, entryID string, userID uint) error
	DeleteLikesByEntryID(ctx context.Context, entryID string) error
	GetLikesCountByEntryID(ctx context.Context, entryID string) (int64, error)
	GetLikesCountByEntryIDs(ctx context.Context, entryIDs []string) (map[string]int64, error)
	HasUserLikedEntry(ctx context.Context, entryID string, userID uint) (bool, error)
	GetLikedEntryIDs(ctx context.Context, userID uint, entryIDs []string) (map[string]bool, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike creates a new like
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	return createUnique(r.db.WithContext(ctx), like)
}

// DeleteLike deletes a like; deleting a missing like is not an error
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, entryID string, userID uint) error {
	return r.db.WithContext(ctx).Where("entry_id = ? AND user_id = ?", entryID, userID).Delete(&models.Like{}).Error
}

// DeleteLikesByEntryID removes every like of a deleted entry
func (r *PostgresLikeRepository) DeleteLikesByEntryID(ctx context.Context, entryID string) error {
	return r.db.WithContext(ctx).Where("entry_id = ?", entryID).Delete(&models.Like{}).Error
}

// GetLikesCountByEntryID retrieves the count of likes for a specific entry
func (r *PostgresLikeRepository) GetLikesCountByEntryID(ctx context.Context, entryID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("entry_id = ?", entryID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetLikesCountByEntryIDs counts likes for many entries with one grouped query
func (r *PostgresLikeRepository) GetLikesCountByEntryIDs(ctx context.Context, entryIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(entryIDs))
	if len(entryIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		EntryID string
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("entry_id, COUNT(*) AS total").
		Where("entry_id IN ?", entryIDs).
		Group("entry_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.EntryID] = row.Total
	}
	return counts, nil
}

// HasUserLikedEntry checks if a user has liked a specific entry
func (r *PostgresLikeRepository) HasUserLikedEntry(ctx context.Context, entryID string, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("entry_id = ? AND user_id = ?", entryID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikedEntryIDs reports which of the entries the user has liked
func (r *PostgresLikeRepository) GetLikedEntryIDs(ctx context.Context, userID uint, entryIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(entryIDs))
	if len(entryIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND entry_id IN ?", userID, entryIDs).
		Pluck("entry_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
