// Package servicetest provides in-memory stores for exercising the
// services without MongoDB or Cloud Storage.
package servicetest

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/anonto42/three-good-things/backend/internal/storage"
	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens a migrated SQLite database that lives for the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "services.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open sqlite")
	require.NoError(t, repositories.AutoMigrate(db), "failed to migrate schema")
	return db
}

// MemoryEntryRepository is an EntryRepository backed by a map. The Fail*
// fields make the matching operation return that error.
type MemoryEntryRepository struct {
	mu      sync.Mutex
	entries map[primitive.ObjectID]models.Entry

	FailCreate error
	FailUpdate error
	FailList   error
	// FailUpdateOnce clears FailUpdate after it has been returned once.
	FailUpdateOnce bool
}

var _ repositories.EntryRepository = (*MemoryEntryRepository)(nil)

func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{entries: make(map[primitive.ObjectID]models.Entry)}
}

func (r *MemoryEntryRepository) CreateEntry(_ context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return r.FailCreate
	}
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
	r.entries[entry.ID] = cloneEntry(*entry)
	return nil
}

func (r *MemoryEntryRepository) GetEntryByID(_ context.Context, id string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	entry, ok := r.entries[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	entry = cloneEntry(entry)
	return &entry, nil
}

func (r *MemoryEntryRepository) GetEntryByDate(_ context.Context, ownerID uint, date string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *models.Entry
	for _, entry := range r.entries {
		if entry.UserID != ownerID || entry.EntryDate != date {
			continue
		}
		if newest == nil || entry.CreatedAt.After(newest.CreatedAt) {
			candidate := cloneEntry(entry)
			newest = &candidate
		}
	}
	if newest == nil {
		return nil, repositories.ErrNotFound
	}
	return newest, nil
}

func (r *MemoryEntryRepository) GetEntriesByIDs(_ context.Context, ids []string) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := make([]models.Entry, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if entry, ok := r.entries[objID]; ok {
			found = append(found, cloneEntry(entry))
		}
	}
	return found, nil
}

func (r *MemoryEntryRepository) ListEntries(_ context.Context, query repositories.EntryQuery) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailList != nil {
		return nil, r.FailList
	}
	matched := make([]models.Entry, 0)
	for _, entry := range r.entries {
		if entry.UserID != query.OwnerID {
			continue
		}
		if query.DateFrom != "" && entry.EntryDate < query.DateFrom {
			continue
		}
		if query.DateTo != "" && entry.EntryDate > query.DateTo {
			continue
		}
		if len(query.Tags) > 0 && !hasAnyTag(entry.Tags, query.Tags) {
			continue
		}
		matched = append(matched, cloneEntry(entry))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].EntryDate != matched[j].EntryDate {
			return matched[i].EntryDate > matched[j].EntryDate
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (r *MemoryEntryRepository) ListRecentEntries(_ context.Context, skip, limit int64) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]models.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		all = append(all, cloneEntry(entry))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if skip >= int64(len(all)) {
		return []models.Entry{}, nil
	}
	all = all[skip:]
	if limit > 0 && limit < int64(len(all)) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryEntryRepository) CountEntriesByOwner(_ context.Context, ownerID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, entry := range r.entries {
		if entry.UserID == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryEntryRepository) UpdateEntry(_ context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdate != nil {
		err := r.FailUpdate
		if r.FailUpdateOnce {
			r.FailUpdate = nil
		}
		return err
	}
	if _, ok := r.entries[entry.ID]; !ok {
		return repositories.ErrNotFound
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	r.entries[entry.ID] = cloneEntry(*entry)
	return nil
}

func (r *MemoryEntryRepository) DeleteEntry(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrNotFound
	}
	if _, ok := r.entries[objID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.entries, objID)
	return nil
}

// Len reports how many entries are stored.
func (r *MemoryEntryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryBucket is a storage.Bucket backed by a map.
type MemoryBucket struct {
	mu      sync.Mutex
	name    string
	objects map[string]Object
	deleted []string

	FailUpload error
	FailDelete error
	FailList   error
}

var _ storage.Bucket = (*MemoryBucket)(nil)

func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{name: name, objects: make(map[string]Object)}
}

func (b *MemoryBucket) Upload(_ context.Context, path string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailUpload != nil {
		return b.FailUpload
	}
	b.objects[path] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (b *MemoryBucket) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete != nil {
		return b.FailDelete
	}
	delete(b.objects, path)
	b.deleted = append(b.deleted, path)
	return nil
}

func (b *MemoryBucket) List(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailList != nil {
		return nil, b.FailList
	}
	paths := make([]string, 0)
	for path := range b.objects {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (b *MemoryBucket) PublicURL(path string) string {
	return storage.PublicURL(storage.DefaultPublicBaseURL, b.name, path)
}

// Object returns the stored object at path.
func (b *MemoryBucket) Object(path string) (Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	object, ok := b.objects[path]
	return object, ok
}

// Paths lists every stored path in order.
func (b *MemoryBucket) Paths() []string {
	paths, _ := b.List(context.Background(), "")
	return paths
}

// Deleted lists the paths passed to Delete, in call order.
func (b *MemoryBucket) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func cloneEntry(entry models.Entry) models.Entry {
	entry.Tags = append([]string{}, entry.Tags...)
	return entry
}

func hasAnyTag(have, wanted []string) bool {
	for _, tag := range wanted {
		for _, candidate := range have {
			if candidate == tag {
				return true
			}
		}
	}
	return false
}
