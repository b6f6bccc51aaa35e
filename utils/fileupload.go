package utils

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

var (
	// UploadDir is the directory where locally stored files live
	// Can be overridden for testing
	UploadDir = "./uploads"
)

// FileKind selects the validation rules and storage folder of an upload
type FileKind string

const (
	KindProfilePicture FileKind = "profile_picture"
	KindQualifications FileKind = "qualifications"
	KindChatAttachment FileKind = "chat_attachment"
)

var allowedExtensions = map[FileKind][]string{
	KindProfilePicture: {".png", ".jpg", ".jpeg"},
	KindQualifications: {".pdf", ".doc", ".docx", ".png", ".jpg", ".jpeg"},
	KindChatAttachment: {".pdf", ".doc", ".docx", ".txt", ".png", ".jpg", ".jpeg"},
}

var folders = map[FileKind]string{
	KindProfilePicture: "profile_pics",
	KindQualifications: "qualifications",
	KindChatAttachment: "chat_files",
}

// Folder is the storage prefix files of this kind are kept under
func (k FileKind) Folder() string {
	if folder, ok := folders[k]; ok {
		return folder
	}
	return "uploads"
}

// AllowedExtensions lists the lower-case extensions accepted for this kind
func (k FileKind) AllowedExtensions() []string {
	return allowedExtensions[k]
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateUpload validates the uploaded file format and size for the given kind
func ValidateUpload(fileHeader *multipart.FileHeader, kind FileKind) error {
	if fileHeader == nil {
		return &FileUploadError{Code: "MISSING_FILE", Message: "No file provided"}
	}

	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check file extension
	allowed := kind.AllowedExtensions()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !slices.Contains(allowed, ext) {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(allowed, ", ")),
		}
	}

	return nil
}

// IsServableFile reports whether filename has an extension some upload kind accepts
func IsServableFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, exts := range allowedExtensions {
		if slices.Contains(exts, ext) {
			return true
		}
	}
	return false
}

// ContentTypeFor guesses the content type from the file extension
func ContentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// SaveUploadedFile saves the uploaded file to uploadDir under filename
// Returns the name of the saved file
func SaveUploadedFile(fileHeader *multipart.FileHeader, uploadDir, filename string) (saved string, err error) {
	// Create uploads directory if it doesn't exist
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename = filepath.Base(filename)
	fullPath := filepath.Join(uploadDir, filename)

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			fmt.Printf("warning: failed to close source file: %v\n", closeErr)
		}
	}()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

// GetFileURL returns the URL path for accessing a locally stored file
func GetFileURL(filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/uploads/%s", filename)
}
