package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EntryQuery selects one user's entries. Empty bounds are open.
type EntryQuery struct {
	OwnerID  uint
	DateFrom string
	DateTo   string
	Tags     []string
}

// EntryRepository defines the interface for journal entry operations
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry *models.Entry) error
	GetEntryByID(ctx context.Context, id string) (*models.Entry, error)
	GetEntryByDate(ctx context.Context, ownerID uint, date string) (*models.Entry, error)
	GetEntriesByIDs(ctx context.Context, ids []string) ([]models.Entry, error)
	ListEntries(ctx context.Context, query EntryQuery) ([]models.Entry, error)
	ListRecentEntries(ctx context.Context, skip, limit int64) ([]models.Entry, error)
	CountEntriesByOwner(ctx context.Context, ownerID uint) (int64, error)
	UpdateEntry(ctx context.Context, entry *models.Entry) error
	DeleteEntry(ctx context.Context, id string) error
}

// MongoEntryRepository implements EntryRepository for MongoDB
type MongoEntryRepository struct {
	collection *mongo.Collection
}

// NewMongoEntryRepository creates a new MongoEntryRepository
func NewMongoEntryRepository(db *mongo.Database) *MongoEntryRepository {
	return &MongoEntryRepository{collection: db.Collection("entries")}
}

// EnsureIndexes creates the indexes the entry queries rely on
func (r *MongoEntryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "entry_date", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	return err
}

// CreateEntry inserts the entry and assigns its ID
func (r *MongoEntryRepository) CreateEntry(ctx context.Context, entry *models.Entry) error {
	entry.ID = primitive.NewObjectID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *MongoEntryRepository) GetEntryByID(ctx context.Context, id string) (*models.Entry, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// GetEntryByDate returns the owner's entry for a calendar date. When several
// exist the most recently created one wins.
func (r *MongoEntryRepository) GetEntryByDate(ctx context.Context, ownerID uint, date string) (*models.Entry, error) {
	return r.findOne(ctx, bson.M{"user_id": ownerID, "entry_date": date},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *MongoEntryRepository) GetEntriesByIDs(ctx context.Context, ids []string) ([]models.Entry, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return []models.Entry{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, options.Find())
}

// ListEntries returns the owner's entries newest date first
func (r *MongoEntryRepository) ListEntries(ctx context.Context, query EntryQuery) ([]models.Entry, error) {
	filter := bson.M{"user_id": query.OwnerID}
	dateRange := bson.M{}
	if query.DateFrom != "" {
		dateRange["$gte"] = query.DateFrom
	}
	if query.DateTo != "" {
		dateRange["$lte"] = query.DateTo
	}
	if len(dateRange) > 0 {
		filter["entry_date"] = dateRange
	}
	if len(query.Tags) > 0 {
		filter["tags"] = bson.M{"$in": query.Tags}
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "entry_date", Value: -1}, {Key: "created_at", Value: -1}})
	return r.find(ctx, filter, findOptions)
}

// ListRecentEntries retrieves entries of all users by creation time
func (r *MongoEntryRepository) ListRecentEntries(ctx context.Context, skip, limit int64) ([]models.Entry, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.D{}, findOptions)
}

func (r *MongoEntryRepository) CountEntriesByOwner(ctx context.Context, ownerID uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user_id": ownerID})
}

// UpdateEntry replaces the editable fields of an existing entry
func (r *MongoEntryRepository) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	update := bson.M{
		"$set": bson.M{
			"entry_date":  entry.EntryDate,
			"thing_one":   entry.ThingOne,
			"thing_two":   entry.ThingTwo,
			"thing_three": entry.ThingThree,
			"gratitude":   entry.Gratitude,
			"tags":        entry.Tags,
			"image_url":   entry.ImageURL,
			"image_path":  entry.ImagePath,
			"updated_at":  entry.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": entry.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoEntryRepository) DeleteEntry(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoEntryRepository) findOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Entry, error) {
	var entry models.Entry
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	return &entry, nil
}

func (r *MongoEntryRepository) find(ctx context.Context, filter interface{}, findOptions *options.FindOptions) ([]models.Entry, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]models.Entry, 0)
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Tags == nil {
			entries[i].Tags = []string{}
		}
	}
	return entries, nil
}
