package service

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"sitecms/internal/storage"
)

// FileService stores uploads and hands out their public URLs.
type FileService struct {
	blobs   *storage.BlobStore
	baseURL string
	emitter EventEmitter
}

// NewFileService serves files under baseURL + "/files/". An empty baseURL
// yields root-relative URLs.
func NewFileService(blobs *storage.BlobStore, baseURL string, emitter EventEmitter) *FileService {
	return &FileService{blobs: blobs, baseURL: strings.TrimRight(baseURL, "/"), emitter: emitter}
}

// UploadResult describes a stored file.
type UploadResult struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	URL    string `json:"url"`
}

// Upload stores a new file. Existing paths are never overwritten.
func (s *FileService) Upload(ctx context.Context, bucket, path string, r io.Reader) (*UploadResult, error) {
	key, err := s.blobs.Put(bucket, path, r)
	if err != nil {
		return nil, err
	}
	res := &UploadResult{Bucket: bucket, Path: key, URL: s.url(bucket, key)}
	s.emitter.Emit(ctx, EventFileUploaded, res)
	return res, nil
}

// PublicURL returns the URL a stored file is served from.
func (s *FileService) PublicURL(bucket, path string) (string, error) {
	key, err := storage.CleanKey(bucket, path)
	if err != nil {
		return "", err
	}
	return s.url(bucket, key), nil
}

func (s *FileService) url(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/files/" + bucket + "/" + strings.Join(parts, "/")
}

// Open returns the file for reading. The caller closes it.
func (s *FileService) Open(bucket, path string) (*os.File, error) {
	return s.blobs.Open(bucket, path)
}

func (s *FileService) Delete(bucket, path string) error {
	return s.blobs.Delete(bucket, path)
}
