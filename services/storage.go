package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/legalconnect/legalconnect-api/utils"
)

// FileStorage keeps uploaded files (profile pictures, qualifications, chat attachments)
type FileStorage interface {
	// Upload validates the file against kind's rules, stores it and returns its storage key
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, kind utils.FileKind) (string, error)

	// URL returns a URL the client can fetch the stored file from
	URL(ctx context.Context, key string) (string, error)

	// Delete removes a stored file
	Delete(ctx context.Context, key string) error
}

var fileStorageInstance FileStorage

// InitFileStorage picks S3 when a bucket is configured, local disk otherwise
func InitFileStorage(s3Service S3Interface, uploadDir string) FileStorage {
	if s3Service != nil {
		fileStorageInstance = NewS3Storage(s3Service)
	} else {
		fileStorageInstance = NewLocalStorage(uploadDir)
	}
	return fileStorageInstance
}

// GetFileStorage returns the initialized file storage instance
func GetFileStorage() FileStorage {
	return fileStorageInstance
}

// SetFileStorage sets the file storage instance (primarily for testing)
func SetFileStorage(storage FileStorage) {
	fileStorageInstance = storage
}

// newStorageName builds a collision-free file name that keeps the original base name
func newStorageName(fileHeader *multipart.FileHeader) string {
	return fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(fileHeader.Filename))
}

// S3Storage implements FileStorage on an S3 bucket
type S3Storage struct {
	s3Service S3Interface
}

// NewS3Storage wraps an S3 client
func NewS3Storage(s3Service S3Interface) *S3Storage {
	return &S3Storage{s3Service: s3Service}
}

// Upload validates the file and uploads it under the kind's folder
func (s *S3Storage) Upload(ctx context.Context, fileHeader *multipart.FileHeader, kind utils.FileKind) (string, error) {
	if err := utils.ValidateUpload(fileHeader, kind); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s", kind.Folder(), newStorageName(fileHeader))
	if err := s.s3Service.UploadFile(ctx, fileHeader, key); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return key, nil
}

// URL generates a presigned URL for the object
func (s *S3Storage) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate file URL: %w", err)
	}

	return url, nil
}

// Delete deletes the object from S3
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// LocalStorage implements FileStorage on the local disk, served by GET /api/v1/uploads/:filename
type LocalStorage struct {
	dir string
}

// NewLocalStorage stores files under dir
func NewLocalStorage(dir string) *LocalStorage {
	if dir == "" {
		dir = utils.UploadDir
	}
	return &LocalStorage{dir: dir}
}

// Upload validates the file and writes it to disk.
// The folder becomes a name prefix since the uploads route serves a flat directory.
func (s *LocalStorage) Upload(_ context.Context, fileHeader *multipart.FileHeader, kind utils.FileKind) (string, error) {
	if err := utils.ValidateUpload(fileHeader, kind); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s", kind.Folder(), newStorageName(fileHeader))
	saved, err := utils.SaveUploadedFile(fileHeader, s.dir, name)
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return saved, nil
}

// URL returns the API path of the stored file
func (s *LocalStorage) URL(_ context.Context, key string) (string, error) {
	return utils.GetFileURL(key), nil
}

// Delete removes the file from disk; a missing file is not an error
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// fileURL resolves key through storage, returning nil when there is nothing to link
func fileURL(ctx context.Context, storage FileStorage, key *string) *string {
	if storage == nil || key == nil || *key == "" {
		return nil
	}
	url, err := storage.URL(ctx, *key)
	if err != nil || url == "" {
		return nil
	}
	return &url
}
