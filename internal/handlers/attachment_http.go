package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/middleware"
	"github.com/ousidus/ticket-machine/internal/storage"
	"github.com/ousidus/ticket-machine/internal/utils"
)

type AttachmentService interface {
	UploadAttachment(ctx context.Context, ownerID, filename string, size int64, r io.Reader) (string, error)
}

type AttachmentHTTP struct {
	svc AttachmentService
	log zerolog.Logger
}

func NewAttachmentHTTP(svc AttachmentService, log zerolog.Logger) *AttachmentHTTP {
	return &AttachmentHTTP{svc: svc, log: log}
}

// Upload accepts one multipart file field named "file" and returns the
// public URL of the stored object. Oversized uploads are rejected from
// the declared size before any bytes reach the blob store.
func (h *AttachmentHTTP) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserIDFrom(r.Context())
		if uid == "" {
			utils.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if r.ContentLength > storage.MaxUploadSize+1024 {
			respondError(w, storage.ErrFileTooLarge)
			return
		}

		if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		url, err := h.svc.UploadAttachment(r.Context(), uid, header.Filename, header.Size, file)
		if err != nil {
			respondError(w, err)
			return
		}

		utils.JSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}
