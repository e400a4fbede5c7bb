package sitecontent

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

const publicObjectPath = "/storage/v1/object/public/"

// AssetStore stores binary assets by the entity path convention and resolves
// their public URLs. It does not validate files; callers run the validators
// first.
type AssetStore struct {
	blobs   BlobStore
	baseURL string
	bucket  string
	now     func() time.Time

	mu     sync.Mutex
	lastMS int64
}

// NewAssetStore creates an asset store publishing objects as
// <baseURL>/storage/v1/object/public/<bucket>/<key>.
func NewAssetStore(blobs BlobStore, baseURL, bucket string) *AssetStore {
	return &AssetStore{
		blobs:   blobs,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bucket:  bucket,
		now:     time.Now,
	}
}

// Bucket returns the bucket name used in public URLs.
func (a *AssetStore) Bucket() string {
	return a.bucket
}

// Blobs returns the underlying blob store.
func (a *AssetStore) Blobs() BlobStore {
	return a.blobs
}

// Upload stores the file in the slot of the entity and returns its public URL.
func (a *AssetStore) Upload(ctx context.Context, kind AssetKind, entityID string, slot Slot, file File) (string, error) {
	key := kind.ObjectKey(entityID, slot, FileExtension(file.FileInfo), a.uploadTime())

	err := a.blobs.UploadWithParams(ctx, file.Body, UploadParams{
		ObjectKey: key,
		MimeType:  file.MimeType,
		Size:      file.Size,
	})
	if err != nil {
		return "", &StorageError{Op: "upload", Key: key, Err: err}
	}

	return a.PublicURL(key), nil
}

// uploadTime returns a clock reading whose millisecond value is strictly
// greater than any previously issued one.
func (a *AssetStore) uploadTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.now()
	if ms := t.UnixMilli(); ms <= a.lastMS {
		t = time.UnixMilli(a.lastMS + 1)
	}
	a.lastMS = t.UnixMilli()
	return t
}

// ListForEntity lists the objects owned by the entity.
func (a *AssetStore) ListForEntity(ctx context.Context, kind AssetKind, entityID string) ([]AssetDescriptor, error) {
	prefix := kind.EntityPrefix(entityID)
	objects, err := a.blobs.List(ctx, prefix)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: prefix, Err: err}
	}

	assets := make([]AssetDescriptor, 0, len(objects))
	for _, obj := range objects {
		if !kind.Owns(entityID, obj.Key) {
			continue
		}
		assets = append(assets, AssetDescriptor{
			Path:        obj.Key,
			URL:         a.PublicURL(obj.Key),
			Size:        obj.Size,
			ContentType: obj.ContentType,
			UpdatedAt:   obj.UpdatedAt,
		})
	}
	return assets, nil
}

// DeleteAll deletes every object owned by the entity and returns how many
// were removed. If listing fails nothing is deleted.
func (a *AssetStore) DeleteAll(ctx context.Context, kind AssetKind, entityID string) (int, error) {
	assets, err := a.ListForEntity(ctx, kind, entityID)
	if err != nil {
		return 0, err
	}
	if len(assets) == 0 {
		return 0, nil
	}

	keys := make([]string, len(assets))
	for i, asset := range assets {
		keys[i] = asset.Path
	}
	if err := a.blobs.DeleteMany(ctx, keys); err != nil {
		return 0, &StorageError{Op: "delete_many", Key: kind.EntityPrefix(entityID), Err: err}
	}
	return len(keys), nil
}

// DeleteByURL deletes the object behind a public URL this store issued.
// URLs of any other shape are not ours and are left alone. The returned
// bool reports whether an object was deleted.
func (a *AssetStore) DeleteByURL(ctx context.Context, rawURL string) (bool, error) {
	key, ok := a.ParsePublicURL(rawURL)
	if !ok {
		return false, nil
	}

	if err := a.blobs.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return false, nil
		}
		return false, &StorageError{Op: "delete", Key: key, Err: err}
	}
	return true, nil
}

// PublicURL resolves the public URL of a key.
func (a *AssetStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s%s%s/%s", a.baseURL, publicObjectPath, url.PathEscape(a.bucket), strings.Join(segments, "/"))
}

// ParsePublicURL recovers the key from a URL issued by PublicURL.
func (a *AssetStore) ParsePublicURL(rawURL string) (string, bool) {
	prefix := fmt.Sprintf("%s%s%s/", a.baseURL, publicObjectPath, url.PathEscape(a.bucket))
	rest, ok := strings.CutPrefix(rawURL, prefix)
	if !ok {
		return "", false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	key, err := url.PathUnescape(rest)
	if err != nil || key == "" || strings.HasSuffix(key, "/") {
		return "", false
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", false
		}
	}
	return key, true
}
