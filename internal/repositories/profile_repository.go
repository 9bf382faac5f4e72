package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"gorm.io/gorm"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByID(ctx context.Context, id uint) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByFirebaseUID(ctx context.Context, firebaseUID string) (*models.Profile, error)
	GetProfilesByIDs(ctx context.Context, ids []uint) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	SearchProfiles(ctx context.Context, query string, excludeID uint, limit int) ([]models.Profile, error)
	ListProfilesExcluding(ctx context.Context, excludeIDs []uint, limit int) ([]models.Profile, error)
}

// PostgresProfileRepository implements ProfileRepository with GORM
type PostgresProfileRepository struct {
	db *gorm.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository
func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *PostgresProfileRepository) GetProfileByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *PostgresProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *PostgresProfileRepository) GetProfileByFirebaseUID(ctx context.Context, firebaseUID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// GetProfilesByIDs loads every listed profile in one query
func (r *PostgresProfileRepository) GetProfilesByIDs(ctx context.Context, ids []uint) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

func (r *PostgresProfileRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// SearchProfiles matches display name or email case-insensitively
func (r *PostgresProfileRepository) SearchProfiles(ctx context.Context, query string, excludeID uint, limit int) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0)
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("(LOWER(display_name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", pattern, pattern).
		Where("id <> ?", excludeID).
		Order("id").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

func (r *PostgresProfileRepository) ListProfilesExcluding(ctx context.Context, excludeIDs []uint, limit int) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0)
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	err := query.Find(&profiles).Error
	return profiles, err
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
