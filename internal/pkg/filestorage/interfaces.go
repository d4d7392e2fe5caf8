package filestorage

import (
	"errors"
	"mime/multipart"
)

// ErrUnsupportedFileType is returned when an upload is not an accepted image
var ErrUnsupportedFileType = errors.New("unsupported file type")

// MaxImageSize is the largest accepted image upload in bytes
const MaxImageSize = 5 << 20

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFileWithPath stores the upload under subPath and returns its public URL
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// SaveImage validates the upload as an image before storing it
	SaveImage(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a file from storage by the URL SaveFileWithPath returned
	DeleteFile(fileURL string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}
