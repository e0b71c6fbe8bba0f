package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/cscinfonest/portal-api/internal/models"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

func pqStringArray(values []string) interface{} {
	return pq.StringArray(values)
}

// BlobStore is the object-storage surface the mutation services depend on.
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
}

var (
	imageContentTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	documentContentTypes = map[string]bool{
		"application/pdf": true,
		"image/jpeg":      true,
		"image/png":       true,
		"image/gif":       true,
		"image/webp":      true,
	}

	academicSessionPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	unsafeKeyChars         = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

func validateImageUpload(upload *models.FileUpload, maxBytes int64) *appErrors.Error {
	if !imageContentTypes[upload.ContentType] {
		return appErrors.ErrValidation.Clone("Invalid file type. Only JPEG, PNG, GIF, and WebP images are allowed.")
	}
	if upload.Size > maxBytes {
		return appErrors.ErrValidation.Clone("Image size must be less than 5MB")
	}
	return nil
}

func validateDocumentUpload(upload *models.FileUpload, maxBytes int64) *appErrors.Error {
	if !documentContentTypes[upload.ContentType] {
		return appErrors.ErrValidation.Clone("Invalid file type. Only PDF and image files are allowed.")
	}
	if upload.Size > maxBytes {
		return appErrors.ErrValidation.Clone("File size must be less than 5MB")
	}
	return nil
}

func validateAcademicSession(session string) *appErrors.Error {
	matches := academicSessionPattern.FindStringSubmatch(session)
	if matches == nil {
		return appErrors.ErrValidation.Clone("Academic session must be in YYYY-YYYY format (e.g., 2024-2025)")
	}
	start := atoiDigits(matches[1])
	end := atoiDigits(matches[2])
	if end != start+1 {
		return appErrors.ErrValidation.Clone("Academic session years must be consecutive (e.g., 2024-2025)")
	}
	return nil
}

func atoiDigits(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// sanitizeFileName keeps the extension and strips anything that would
// need escaping in an object key.
func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	cleaned := unsafeKeyChars.ReplaceAllString(base, "-")
	cleaned = strings.Trim(cleaned, "-.")
	if cleaned == "" {
		cleaned = "file"
	}
	return cleaned
}

func timestampedFileName(now time.Time, name string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), sanitizeFileName(name))
}

// eventImageKey builds keys shaped like 2025/august/<file>.
func eventImageKey(now time.Time, fileName string) string {
	return fmt.Sprintf("%d/%s/%s", now.Year(), strings.ToLower(now.Month().String()), timestampedFileName(now, fileName))
}

// documentKey builds keys shaped like 2024-2025/first-semester/100-level/<file>.
func documentKey(now time.Time, session string, semester models.Semester, level, fileName string) string {
	return fmt.Sprintf("%s/%s-semester/%s-level/%s", session, semester, level, timestampedFileName(now, fileName))
}

// keyFromPublicURL recovers the object key from a stored public URL so a
// replaced file can be removed. Returns "" when the URL is not ours.
func keyFromPublicURL(url, base string) string {
	base = strings.TrimRight(base, "/")
	if base == "" || !strings.HasPrefix(url, base+"/") {
		return ""
	}
	rest := strings.TrimPrefix(url, base+"/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}
