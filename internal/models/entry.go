package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryDateLayout is the calendar date format used for entry_date
const EntryDateLayout = "2006-01-02"

// ValidEntryDate reports whether value is a YYYY-MM-DD calendar date.
func ValidEntryDate(value string) bool {
	_, err := time.Parse(EntryDateLayout, value)
	return err == nil
}

// CheckDateRange validates optional inclusive from/to bounds.
func CheckDateRange(dateFrom, dateTo string) error {
	if dateFrom != "" && !ValidEntryDate(dateFrom) {
		return errors.New("from must be formatted as YYYY-MM-DD")
	}
	if dateTo != "" && !ValidEntryDate(dateTo) {
		return errors.New("to must be formatted as YYYY-MM-DD")
	}
	if dateFrom != "" && dateTo != "" && dateFrom > dateTo {
		return errors.New("from must not be after to")
	}
	return nil
}

// Entry is one day's journal record, stored in MongoDB
type Entry struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     uint               `json:"user_id" bson:"user_id"`
	EntryDate  string             `json:"entry_date" bson:"entry_date"`
	ThingOne   string             `json:"thing_one" bson:"thing_one"`
	ThingTwo   string             `json:"thing_two" bson:"thing_two"`
	ThingThree string             `json:"thing_three" bson:"thing_three"`
	Gratitude  string             `json:"gratitude,omitempty" bson:"gratitude,omitempty"`
	Tags       []string           `json:"tags" bson:"tags"`
	ImageURL   string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	ImagePath  string             `json:"image_path,omitempty" bson:"image_path,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// Things returns the three good things in order
func (e *Entry) Things() [3]string {
	return [3]string{e.ThingOne, e.ThingTwo, e.ThingThree}
}

// ImageUpload is an image file received with an entry or avatar form
type ImageUpload struct {
	Filename string
	Data     []byte
}

// EntryForm carries the user-editable fields of an entry
type EntryForm struct {
	EntryDate   string       `json:"entry_date" form:"entry_date" validate:"required,datetime=2006-01-02"`
	ThingOne    string       `json:"thing_one" form:"thing_one" validate:"required,max=500"`
	ThingTwo    string       `json:"thing_two" form:"thing_two" validate:"required,max=500"`
	ThingThree  string       `json:"thing_three" form:"thing_three" validate:"required,max=500"`
	Gratitude   string       `json:"gratitude" form:"gratitude" validate:"max=1000"`
	RemoveImage bool         `json:"remove_image" form:"remove_image"`
	Image       *ImageUpload `json:"-" form:"-"`
}

// Normalized returns a copy of the form with surrounding whitespace removed
func (f EntryForm) Normalized() EntryForm {
	f.EntryDate = strings.TrimSpace(f.EntryDate)
	f.ThingOne = strings.TrimSpace(f.ThingOne)
	f.ThingTwo = strings.TrimSpace(f.ThingTwo)
	f.ThingThree = strings.TrimSpace(f.ThingThree)
	f.Gratitude = strings.TrimSpace(f.Gratitude)
	return f
}

// EntryFilters narrows a search over one user's entries
type EntryFilters struct {
	Query    string   `json:"query,omitempty" query:"q"`
	DateFrom string   `json:"date_from,omitempty" query:"from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string   `json:"date_to,omitempty" query:"to" validate:"omitempty,datetime=2006-01-02"`
	Tags     []string `json:"tags,omitempty" query:"-"`
}

// TimelineEntry is an entry annotated with its author and social state
type TimelineEntry struct {
	Entry
	Author        *Profile `json:"author"`
	LikeCount     int64    `json:"like_count"`
	LikedByViewer bool     `json:"liked_by_viewer"`
}
