package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cscinfonest/portal-api/internal/middleware"
	"github.com/cscinfonest/portal-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// fileFromForm reads one multipart upload into memory. A missing field is
// not an error; the caller decides whether the file is required.
func fileFromForm(c *gin.Context, field string) (*models.FileUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &models.FileUpload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// formString returns a trimmed form value and whether the field was present.
func formString(c *gin.Context, field string) (string, bool) {
	value, ok := c.GetPostForm(field)
	return strings.TrimSpace(value), ok
}

func formBool(c *gin.Context, field string) (bool, bool) {
	raw, ok := formString(c, field)
	if !ok {
		return false, false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return parsed, true
}

// formTime parses RFC 3339 first and falls back to the datetime-local
// format browsers submit.
func formTime(c *gin.Context, field string) (time.Time, bool) {
	raw, ok := formString(c, field)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse("2006-01-02T15:04", raw); err == nil {
		return parsed.UTC(), true
	}
	return time.Time{}, false
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func queryBoolPtr(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &parsed
}
