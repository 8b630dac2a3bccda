/*
Package storage provides the object storage layer backing image messages.

Image messages carry a storage object key as their content; clients upload and
fetch the bytes directly through presigned URLs, so image data never flows
through the relay itself.
*/
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ImageStorage defines the public interface for the image storage service.
type ImageStorage interface {
	// PresignUpload generates a pre-signed URL for uploading an image.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a pre-signed URL for downloading an image.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the object specified by the given key.
	Delete(ctx context.Context, key string) error
}

// NewImageStorage is the factory function for ImageStorage.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewImageStorage(cfg ServiceConfig) (ImageStorage, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}
