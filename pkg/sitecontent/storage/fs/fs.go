package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// Backend is a filesystem implementation of the sitecontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	// Validate and create base directory if it doesn't exist
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir: filepath.Clean(config.BaseDir),
	}, nil
}

// filePath maps a key to a path inside baseDir, refusing keys that escape it
func (b *Backend) filePath(objectKey string) (string, error) {
	cleaned := path.Clean("/" + objectKey)
	if cleaned == "/" || strings.HasSuffix(objectKey, "/") {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(cleaned[1:])), nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*sitecontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	filePath, err := b.filePath(objectKey)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", objectKey, sitecontent.ErrObjectNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return &sitecontent.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: detectContentType(filePath),
		UpdatedAt:   info.ModTime(),
	}, nil
}

// detectContentType guesses from the extension, then from the first bytes
func detectContentType(filePath string) string {
	if byExt := mime.TypeByExtension(filepath.Ext(filePath)); byExt != "" {
		return byExt
	}
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}
	return contentType
}

// UploadWithParams uploads content to the filesystem. The MIME type is not
// stored; it is detected on read.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params sitecontent.UploadParams) error {
	filePath, err := b.filePath(params.ObjectKey)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Create directory structure if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write beside the target and rename, so an interrupted upload never
	// leaves a partial object at its key
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	discard := func() {
		tmp.Close()
		os.Remove(tmp.Name())
		b.cleanupEmptyDirectories(filepath.Dir(filePath))
	}

	if _, err := io.Copy(tmp, reader); err != nil {
		discard()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		discard()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		discard()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		discard()
		return fmt.Errorf("failed to store file: %w", err)
	}

	return nil
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	filePath, err := b.filePath(objectKey)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", objectKey, sitecontent.ErrObjectNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath, err := b.filePath(objectKey)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.remove(objectKey, filePath)
}

// DeleteMany deletes every listed key; missing files are skipped
func (b *Backend) DeleteMany(ctx context.Context, objectKeys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, key := range objectKeys {
		filePath, err := b.filePath(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := b.remove(key, filePath); err != nil && !errors.Is(err, sitecontent.ErrObjectNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Backend) remove(objectKey, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", objectKey, sitecontent.ErrObjectNotFound)
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

// List walks the base directory and returns the files whose key starts with prefix
func (b *Backend) List(ctx context.Context, prefix string) ([]sitecontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Only the directory holding the prefix needs walking
	root := b.baseDir
	if dir := path.Dir(prefix); dir != "." && dir != "/" {
		root = filepath.Join(b.baseDir, filepath.FromSlash(dir))
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var result []sitecontent.ObjectMeta
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		result = append(result, sitecontent.ObjectMeta{
			Key:         key,
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(path.Ext(key)),
			UpdatedAt:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	// Don't remove the base directory
	if dir == b.baseDir || !strings.HasPrefix(dir, b.baseDir) {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
