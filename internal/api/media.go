package api

import (
	"errors"
	"net/http"

	"github.com/huongkhe/schoolsite/internal/audit"
)

// multipartOverhead allows for multipart headers around the file part.
const multipartOverhead = 64 << 10

// multipartMemory is how much of a form is held in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

// handleUpload stores an image sent as the multipart field "file".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.media.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("Request must be multipart/form-data with a file field", err)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup is best-effort

	file, header, err := r.FormFile("file")
	if err != nil {
		return badRequest("file field is required", err)
	}
	defer file.Close()

	obj, err := s.media.Upload(r.Context(), file)
	if err != nil {
		return err
	}

	s.logger.Info("media uploaded", "key", obj.Key, "size", obj.Size, "filename", header.Filename)
	s.record(r, &audit.AuditLog{
		Action:     audit.ActionUpload,
		EntityType: "media",
		EntityID:   obj.Key,
		Details: map[string]any{
			"filename":    header.Filename,
			"size":        obj.Size,
			"contentType": obj.ContentType,
		},
	})

	writeJSON(w, http.StatusCreated, obj)
	return nil
}
