package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the sitecontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*sitecontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("%s: %w", objectKey, sitecontent.ErrObjectNotFound)
	}

	return &sitecontent.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params sitecontent.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = object{data: data, mimeType: mimeType, updatedAt: time.Now().UTC()}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("%s: %w", objectKey, sitecontent.ErrObjectNotFound)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return fmt.Errorf("%s: %w", objectKey, sitecontent.ErrObjectNotFound)
	}

	delete(b.objects, objectKey)
	return nil
}

// DeleteMany deletes every listed key
func (b *Backend) DeleteMany(ctx context.Context, objectKeys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range objectKeys {
		delete(b.objects, key)
	}
	return nil
}

// List returns the objects under prefix sorted by key
func (b *Backend) List(ctx context.Context, prefix string) ([]sitecontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []sitecontent.ObjectMeta
	for key, obj := range b.objects {
		if strings.HasPrefix(key, prefix) {
			result = append(result, sitecontent.ObjectMeta{
				Key:         key,
				Size:        int64(len(obj.data)),
				ContentType: obj.mimeType,
				UpdatedAt:   obj.updatedAt,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, nil
}

// Len returns the number of stored objects.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
