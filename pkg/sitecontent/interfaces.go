package sitecontent

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// UploadWithParams uploads content under params.ObjectKey
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes one object. Returns ErrObjectNotFound when missing.
	Delete(ctx context.Context, objectKey string) error

	// DeleteMany deletes every listed object; missing keys are ignored
	DeleteMany(ctx context.Context, objectKeys []string) error

	// List returns the objects whose key starts with prefix, sorted by key
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
	Size      int64
}

// RecordStore is CRUD over one content kind. List returns records in
// insertion order. Update replaces the whole record.
type RecordStore[T any] interface {
	List(ctx context.Context) ([]*T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	Delete(ctx context.Context, id string) error
}

// EventStore adds the featured toggle to event CRUD.
type EventStore interface {
	RecordStore[EventItem]

	// SetFeatured changes only isFeatured and returns the stored event
	SetFeatured(ctx context.Context, id string, featured bool) (*EventItem, error)
}

// InquiryStore is append-and-delete only; inquiries are never edited.
type InquiryStore interface {
	List(ctx context.Context) ([]*Inquiry, error)
	Get(ctx context.Context, id string) (*Inquiry, error)
	Create(ctx context.Context, inquiry *Inquiry) error
	Delete(ctx context.Context, id string) error
}

// Repository defines the interface for content persistence
type Repository interface {
	Projects() RecordStore[Project]
	Events() EventStore
	News() RecordStore[NewsItem]
	Inquiries() InquiryStore
}
