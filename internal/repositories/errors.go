package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup for a single record matches nothing
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when an edge covered by a unique index is
// inserted a second time
var ErrAlreadyExists = errors.New("record already exists")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// createUnique inserts value, reporting ErrAlreadyExists instead of a
// constraint violation when the unique key is already taken.
func createUnique(db *gorm.DB, value interface{}) error {
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(value)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}
