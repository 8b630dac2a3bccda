/*
Package handler provides HTTP handler functions for image message uploads.

Image bytes never pass through the relay: clients upload to object storage via
a presigned URL and send the resulting object key as the content of an image
message.
*/
package handler

import (
	"net/http"
	"path/filepath"

	"dmchat/internal/app/message"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/randx"
	"dmchat/internal/pkg/req"
	"dmchat/internal/pkg/resp"
)

type PresignImageUploadInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignImageUpload validates the declared image and returns a
// presigned upload URL plus the object key to use as message content.
func HandlePresignImageUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PresignImageUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := message.ValidateImageType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := message.ValidateImageSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key := randx.ImageObjectKey(filepath.Ext(input.FileName))

		uploadURL, err := deps.ImageStorage.PresignUpload(
			r.Context(),
			key,
			input.MimeType,
			input.FileSize,
			message.PresignedURLDuration,
		)
		if err != nil {
			logx.Error(err, "Failed to presign image upload", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		data := map[string]any{
			"uploadUrl":        uploadURL,
			"fileKey":          key,
			"expiresInSeconds": int(message.PresignedURLDuration.Seconds()),
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandlePresignImageDownload returns a presigned download URL for an image
// message's object key.
func HandlePresignImageDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if !randx.IsImageObjectKey(key) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		downloadURL, err := deps.ImageStorage.PresignDownload(r.Context(), key, message.PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign image download", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		data := map[string]any{
			"downloadUrl":      downloadURL,
			"expiresInSeconds": int(message.PresignedURLDuration.Seconds()),
		}
		resp.RespondSuccess(w, r, data)
	}
}
