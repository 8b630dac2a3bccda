package message

import (
	"testing"

	"dmchat/internal/pkg/errs"
)

func TestValidateImageType(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		wantCode int
	}{
		{name: "jpeg", fileName: "photo.jpg", mimeType: "image/jpeg"},
		{name: "jpeg long extension", fileName: "photo.jpeg", mimeType: "image/jpeg"},
		{name: "png", fileName: "shot.png", mimeType: "image/png"},
		{name: "webp", fileName: "sticker.webp", mimeType: "image/webp"},
		{name: "gif", fileName: "anim.gif", mimeType: "image/gif"},
		{name: "uppercase mime type", fileName: "photo.jpg", mimeType: "IMAGE/JPEG"},
		{name: "uppercase extension", fileName: "photo.JPG", mimeType: "image/jpeg"},
		{name: "disallowed mime type", fileName: "clip.mp4", mimeType: "video/mp4", wantCode: errs.ErrImageTypeInvalid},
		{name: "svg rejected", fileName: "icon.svg", mimeType: "image/svg+xml", wantCode: errs.ErrImageTypeInvalid},
		{name: "no extension", fileName: "photo", mimeType: "image/jpeg", wantCode: errs.ErrImageTypeInvalid},
		{name: "extension mime mismatch", fileName: "photo.png", mimeType: "image/jpeg", wantCode: errs.ErrImageTypeInvalid},
		{name: "unknown extension", fileName: "photo.bmp", mimeType: "image/png", wantCode: errs.ErrImageTypeInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImageType(tc.fileName, tc.mimeType)

			if tc.wantCode == 0 {
				if err != nil {
					t.Errorf("expected valid, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error code %d, got nil", tc.wantCode)
			}
			if err.Code != tc.wantCode {
				t.Errorf("expected error code %d, got %d", tc.wantCode, err.Code)
			}
		})
	}
}

func TestValidateImageSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		wantCode int
	}{
		{name: "one byte", size: 1},
		{name: "at limit", size: MaxImageSize},
		{name: "zero", size: 0, wantCode: errs.ErrInvalidParams},
		{name: "negative", size: -1, wantCode: errs.ErrInvalidParams},
		{name: "over limit", size: MaxImageSize + 1, wantCode: errs.ErrImageSizeTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImageSize(tc.size)

			if tc.wantCode == 0 {
				if err != nil {
					t.Errorf("expected valid, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error code %d, got nil", tc.wantCode)
			}
			if err.Code != tc.wantCode {
				t.Errorf("expected error code %d, got %d", tc.wantCode, err.Code)
			}
		})
	}
}
