package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"sitecms/internal/domain"
)

var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// BlobStore keeps uploaded files under root/<bucket>/<path>.
type BlobStore struct {
	root string
}

func NewBlobStore(root string) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &BlobStore{root: root}, nil
}

// CleanKey normalizes an object path and rejects anything that would
// escape its bucket.
func CleanKey(bucket, key string) (string, error) {
	if !bucketName.MatchString(bucket) {
		return "", domain.Invalid("bucket", "invalid bucket name %q", bucket)
	}
	key = strings.ReplaceAll(key, "\\", "/")
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", domain.Invalid("path", "path %q escapes the bucket", key)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." {
		return "", domain.Invalid("path", "path is empty")
	}
	return cleaned, nil
}

func (s *BlobStore) file(bucket, key string) (string, string, error) {
	cleaned, err := CleanKey(bucket, key)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(cleaned)), cleaned, nil
}

// Put writes a new object. Existing objects are never overwritten.
func (s *BlobStore) Put(bucket, key string, r io.Reader) (string, error) {
	full, cleaned, err := s.file(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("upload %s/%s: %w", bucket, cleaned, domain.ErrConflict)
		}
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close object: %w", err)
	}
	return cleaned, nil
}

// Open returns the object for reading. The caller closes it.
func (s *BlobStore) Open(bucket, key string) (*os.File, error) {
	full, cleaned, err := s.file(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s/%s: %w", bucket, cleaned, domain.ErrNotFound)
		}
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s/%s: %w", bucket, cleaned, domain.ErrNotFound)
	}
	return f, nil
}

func (s *BlobStore) Delete(bucket, key string) error {
	full, cleaned, err := s.file(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s/%s: %w", bucket, cleaned, domain.ErrNotFound)
		}
		return err
	}
	return nil
}
