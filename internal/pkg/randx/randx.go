/*
Package randx provides functions for generating unique identifiers.

It is used to generate UUID message and connection identifiers, and random
object keys for uploaded images.
*/
package randx

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ImageKeyPrefix is the object-storage prefix under which image message uploads are stored.
const ImageKeyPrefix = "img/"

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// SocketID generates a unique identifier for a WebSocket connection.
func SocketID() string {
	return uuid.New().String()
}

// ImageObjectKey generates a random object-storage key for an uploaded image
// with the given file extension (e.g. ".png").
func ImageObjectKey(ext string) string {
	ext = strings.ToLower(ext)
	return fmt.Sprintf("%s%s%s", ImageKeyPrefix, uuid.New().String(), ext)
}

// IsImageObjectKey reports whether key lies under the image upload prefix.
// It rejects keys with path traversal segments.
func IsImageObjectKey(key string) bool {
	if !strings.HasPrefix(key, ImageKeyPrefix) {
		return false
	}
	if strings.Contains(key, "..") {
		return false
	}
	return len(key) > len(ImageKeyPrefix)
}
