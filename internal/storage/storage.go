// Package storage stores entry images and avatars in object storage buckets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	firebasestorage "firebase.google.com/go/v4/storage"
	"google.golang.org/api/iterator"
)

// DefaultPublicBaseURL serves objects of publicly readable GCS buckets.
const DefaultPublicBaseURL = "https://storage.googleapis.com"

// Bucket is the set of object operations the services rely on.
type Bucket interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	PublicURL(path string) string
}

// GCSBucket implements Bucket on a Cloud Storage bucket handle.
type GCSBucket struct {
	handle  *gcs.BucketHandle
	name    string
	baseURL string
}

// NewFirebaseBucket opens a bucket through the Firebase storage client
func NewFirebaseBucket(client *firebasestorage.Client, name, publicBaseURL string) (*GCSBucket, error) {
	if name == "" {
		return nil, fmt.Errorf("bucket name not provided")
	}
	handle, err := client.Bucket(name)
	if err != nil {
		return nil, fmt.Errorf("error opening bucket %s: %w", name, err)
	}
	return NewGCSBucket(handle, name, publicBaseURL), nil
}

// NewGCSBucket wraps an existing bucket handle
func NewGCSBucket(handle *gcs.BucketHandle, name, publicBaseURL string) *GCSBucket {
	if publicBaseURL == "" {
		publicBaseURL = DefaultPublicBaseURL
	}
	return &GCSBucket{handle: handle, name: name, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (b *GCSBucket) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	writer := b.handle.Object(path).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=3600"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", path, err)
	}
	return nil
}

func (b *GCSBucket) Delete(ctx context.Context, path string) error {
	err := b.handle.Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

func (b *GCSBucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.handle.Objects(ctx, &gcs.Query{Prefix: prefix})
	paths := make([]string, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}

func (b *GCSBucket) PublicURL(path string) string {
	return PublicURL(b.baseURL, b.name, path)
}

// PublicURL joins base, bucket and an escaped object path.
func PublicURL(baseURL, bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), bucket, strings.Join(segments, "/"))
}
