package message

import (
	"path/filepath"
	"strings"
	"time"

	"dmchat/internal/pkg/errs"
)

const (
	// MaxImageSizeMB is the maximum allowed image size in megabytes.
	MaxImageSizeMB = 5

	// MaxImageSize is the maximum allowed image size in bytes.
	MaxImageSize = MaxImageSizeMB * 1024 * 1024

	// PresignedURLDuration is the fixed duration for which an image upload or
	// download URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedImageMIMETypes defines the set of permitted MIME types for image messages.
var AllowedImageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateImageSize checks if the provided image size is within acceptable limits.
func ValidateImageSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxImageSize {
		return errs.NewError(errs.ErrImageSizeTooLarge)
	}

	return nil
}

// ValidateImageType checks that the file name's extension and the declared MIME
// type are both allowed and consistent with each other.
func ValidateImageType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedImageMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrImageTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return errs.NewError(errs.ErrImageTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrImageTypeInvalid)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrImageTypeInvalid)
	}

	return nil
}
