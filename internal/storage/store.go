// Package storage persists uploaded files (resumes, profile pictures, company logos)
// on local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Category groups uploads by purpose; it is the first segment of every key.
type Category string

// Upload categories
const (
	CategoryResume         Category = "resumes"
	CategoryProfilePicture Category = "profile_pictures"
	CategoryCompanyLogo    Category = "company_logos"
)

// Errors returned by stores and validation.
var (
	ErrNotFound        = errors.New("object not found")
	ErrInvalidKey      = errors.New("invalid storage key")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Store is a blob store addressed by slash-separated keys.
type Store interface {
	// Put writes the object and returns the URL clients use to fetch it.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// MIME types accepted per category, mapped to their canonical extension.
var allowedTypes = map[Category]map[string]string{
	CategoryResume: {
		"application/pdf": ".pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	},
	CategoryProfilePicture: {
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	},
	CategoryCompanyLogo: {
		"image/jpeg":    ".jpg",
		"image/png":     ".png",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/svg+xml": ".svg",
	},
}

// extensionTypes resolves a content type from the file name when the client sends
// application/octet-stream or nothing.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ResolveContentType validates an upload for category and returns its canonical MIME type
// and extension.
func ResolveContentType(category Category, filename, contentType string) (mime, ext string, err error) {
	allowed, ok := allowedTypes[category]
	if !ok {
		return "", "", fmt.Errorf("unknown upload category %q", category)
	}

	mime = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = extensionTypes[strings.ToLower(filepath.Ext(filename))]
	}

	ext, ok = allowed[mime]
	if !ok {
		return "", "", fmt.Errorf("%w for %s: %q", ErrUnsupportedType, category, contentType)
	}
	return mime, ext, nil
}

// NewKey builds a unique object key: <category>/<owner>_<uuid><ext>.
func NewKey(category Category, ownerID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s/%s_%s%s", category, ownerID, uuid.New(), ext)
}

// KeyFromURL recovers the object key from a URL produced by a store whose public base is
// baseURL. It returns "" when url does not belong to the store.
func KeyFromURL(baseURL, url string) string {
	base := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return ""
	}
	return strings.TrimPrefix(url, base)
}

// validateKey rejects keys that could escape the store root.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
