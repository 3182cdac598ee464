package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/storage"
)

// formFileField is the multipart field carrying uploads.
const formFileField = "file"

// upload is a validated multipart file held in memory.
type upload struct {
	Filename    string
	ContentType string
	Ext         string
	Data        []byte
}

// readUpload reads the "file" part of a multipart request, enforcing the size limit
// and the content types allowed for category.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, category storage.Category) (*upload, error) {
	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, s.tooLargeError()
		}
		return nil, &ErrValidation{Field: formFileField, Message: "expected a multipart form upload"}
	}

	file, header, err := r.FormFile(formFileField)
	if err != nil {
		return nil, &ErrValidation{Field: formFileField, Message: "file is required"}
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		return nil, s.tooLargeError()
	}

	mime, ext, err := storage.ResolveContentType(category, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, &ErrValidation{Field: formFileField, Message: err.Error()}
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, s.tooLargeError()
	}
	if len(data) == 0 {
		return nil, &ErrValidation{Field: formFileField, Message: "file is empty"}
	}

	return &upload{Filename: header.Filename, ContentType: mime, Ext: ext, Data: data}, nil
}

func (s *Server) tooLargeError() error {
	return &ErrValidation{
		Field:   formFileField,
		Message: fmt.Sprintf("file exceeds the maximum size of %d MB", s.maxUpload>>20),
	}
}

// storeUpload writes u under a fresh key owned by ownerID and returns its URL.
func (s *Server) storeUpload(r *http.Request, category storage.Category, ownerID uuid.UUID, u *upload) (string, error) {
	key := storage.NewKey(category, ownerID, u.Ext)
	url, err := s.files.Put(r.Context(), key, u.ContentType, bytes.NewReader(u.Data))
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", category, err)
	}
	return url, nil
}

// removeStoredFile deletes a previously stored file by URL. Files outside the store
// and failures are ignored; a stale file is preferable to a failed request.
func (s *Server) removeStoredFile(r *http.Request, url string) {
	if url == "" {
		return
	}
	key := storage.KeyFromURL(s.filesBase, url)
	if key == "" {
		return
	}
	if err := s.files.Delete(r.Context(), key); err != nil {
		s.log.Warn("failed to delete replaced file", zap.String("key", key), zap.Error(err))
	}
}
