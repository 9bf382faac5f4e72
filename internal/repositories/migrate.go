package repositories

import (
	"github.com/anonto42/three-good-things/backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the relational tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Follow{},
		&models.Like{},
		&models.Notification{},
	)
}
