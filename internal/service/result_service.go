package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cscinfonest/portal-api/internal/models"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

type resultRepository interface {
	List(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error)
	ListBySession(ctx context.Context, session string) ([]models.Result, error)
	GetByID(ctx context.Context, id string) (*models.Result, error)
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Result, error)
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) (*models.Result, error)
}

// CreateResultRequest carries a parsed result form. The document is required.
type CreateResultRequest struct {
	Title           string
	Description     string
	AcademicSession string
	Semester        string
	Level           string
	CourseCode      string
	IsPublished     bool
	File            *models.FileUpload
}

type UpdateResultRequest struct {
	Title           string
	AcademicSession string
	Description     *string
	Semester        *string
	Level           *string
	CourseCode      *string
	IsPublished     *bool
	File            *models.FileUpload
}

type ResultService struct {
	repo      resultRepository
	blobs     BlobStore
	cache     *CacheService
	logger    *zap.Logger
	bucket    string
	baseURL   string
	maxUpload int64
	now       func() time.Time
}

func NewResultService(repo resultRepository, blobs BlobStore, cache *CacheService, logger *zap.Logger, bucket, baseURL string, maxUpload int64) *ResultService {
	return &ResultService{
		repo:      repo,
		blobs:     blobs,
		cache:     cache,
		logger:    logger,
		bucket:    bucket,
		baseURL:   baseURL,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

func (s *ResultService) List(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error) {
	results, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch results: %s", err.Error()))
	}
	return results, total, nil
}

// GroupedBySession returns the published results of one academic session
// folded into the per-level matrix, cached under the session key.
func (s *ResultService) GroupedBySession(ctx context.Context, session string) ([]models.GroupedResult, error) {
	session = strings.TrimSpace(session)
	if verr := validateAcademicSession(session); verr != nil {
		return nil, verr
	}

	cacheKey := fmt.Sprintf("grouped:%s", session)
	var cached []models.GroupedResult
	if s.cache.Get(ctx, models.KindResult, cacheKey, &cached) {
		return cached, nil
	}

	results, err := s.repo.ListBySession(ctx, session)
	if err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch results: %s", err.Error()))
	}
	grouped := GroupResultsByLevel(results)
	s.cache.Set(ctx, models.KindResult, cacheKey, grouped)
	return grouped, nil
}

func (s *ResultService) GetByID(ctx context.Context, id string) (*models.Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid result ID provided")
	}
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Result not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch result: %s", err.Error()))
	}
	return result, nil
}

func (s *ResultService) Create(ctx context.Context, req CreateResultRequest) (*models.Result, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.AcademicSession = strings.TrimSpace(req.AcademicSession)
	if req.File == nil || req.Title == "" || req.AcademicSession == "" {
		return nil, appErrors.ErrValidation.Clone("Missing required fields: file, title, and academic_session are required")
	}
	if verr := validateAcademicSession(req.AcademicSession); verr != nil {
		return nil, verr
	}
	semester := models.Semester(strings.ToLower(strings.TrimSpace(req.Semester)))
	if !models.ValidSemester(string(semester)) {
		return nil, appErrors.ErrValidation.Clone("Semester must be either first or second")
	}
	level := strings.TrimSpace(req.Level)
	if !models.ValidLevel(level) {
		return nil, appErrors.ErrValidation.Clone("Level must be one of 100, 200, 300, 400, 500")
	}
	if verr := validateDocumentUpload(req.File, s.maxUpload); verr != nil {
		return nil, verr
	}

	key := documentKey(s.now(), req.AcademicSession, semester, level, req.File.Name)
	if err := s.blobs.Upload(ctx, s.bucket, key, bytes.NewReader(req.File.Data), req.File.ContentType); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to upload result file: %s", err.Error()))
	}

	result := &models.Result{
		Title:           req.Title,
		AcademicSession: req.AcademicSession,
		Semester:        semester,
		Level:           level,
		FileURL:         s.blobs.PublicURL(s.bucket, key),
		FileName:        req.File.Name,
		FileSize:        req.File.Size,
		IsPublished:     req.IsPublished,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		result.Description = &desc
	}
	if code := strings.TrimSpace(req.CourseCode); code != "" {
		result.CourseCode = &code
	}

	if err := s.repo.Create(ctx, result); err != nil {
		s.compensateUpload(ctx, key)
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to save result: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindResult)
	s.logger.Info("result created",
		zap.String("result_id", result.ID),
		zap.String("session", result.AcademicSession),
		zap.String("level", result.Level))
	return result, nil
}

func (s *ResultService) Update(ctx context.Context, id string, req UpdateResultRequest) (*models.Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid result ID provided")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.AcademicSession = strings.TrimSpace(req.AcademicSession)
	if req.Title == "" || req.AcademicSession == "" {
		return nil, appErrors.ErrValidation.Clone("Missing required fields: title and academic_session are required")
	}
	if verr := validateAcademicSession(req.AcademicSession); verr != nil {
		return nil, verr
	}

	patch := map[string]interface{}{
		"title":            req.Title,
		"academic_session": req.AcademicSession,
	}
	if req.Description != nil {
		patch["description"] = nullableText(*req.Description)
	}
	var semester models.Semester
	if req.Semester != nil {
		semester = models.Semester(strings.ToLower(strings.TrimSpace(*req.Semester)))
		if !models.ValidSemester(string(semester)) {
			return nil, appErrors.ErrValidation.Clone("Semester must be either first or second")
		}
		patch["semester"] = semester
	}
	var level string
	if req.Level != nil {
		level = strings.TrimSpace(*req.Level)
		if !models.ValidLevel(level) {
			return nil, appErrors.ErrValidation.Clone("Level must be one of 100, 200, 300, 400, 500")
		}
		patch["level"] = level
	}
	if req.CourseCode != nil {
		patch["course_code"] = nullableText(*req.CourseCode)
	}
	if req.IsPublished != nil {
		patch["is_published"] = *req.IsPublished
	}

	var uploadedKey string
	var staleFileURL string
	if req.File != nil {
		if verr := validateDocumentUpload(req.File, s.maxUpload); verr != nil {
			return nil, verr
		}
		existing, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound.Clone("Result not found")
			}
			return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch result: %s", err.Error()))
		}
		staleFileURL = existing.FileURL
		if semester == "" {
			semester = existing.Semester
		}
		if level == "" {
			level = existing.Level
		}
		uploadedKey = documentKey(s.now(), req.AcademicSession, semester, level, req.File.Name)
		if err := s.blobs.Upload(ctx, s.bucket, uploadedKey, bytes.NewReader(req.File.Data), req.File.ContentType); err != nil {
			return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to upload result file: %s", err.Error()))
		}
		patch["file_url"] = s.blobs.PublicURL(s.bucket, uploadedKey)
		patch["file_name"] = req.File.Name
		patch["file_size"] = req.File.Size
	}

	result, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.compensateUpload(ctx, uploadedKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Result not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to update result: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindResult)
	s.removeStaleBlob(ctx, staleFileURL)
	return result, nil
}

func (s *ResultService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return appErrors.ErrValidation.Clone("Invalid result ID provided")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound.Clone("Result not found")
		}
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch result: %s", err.Error()))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to delete result: %s", err.Error()))
	}
	s.cache.InvalidateKind(ctx, models.KindResult)
	return nil
}

// SetPublished flips visibility of a single result.
func (s *ResultService) SetPublished(ctx context.Context, id string, published bool) (*models.Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid result ID provided")
	}
	result, err := s.repo.SetPublished(ctx, id, published)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Result not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to update publish status: %s", err.Error()))
	}
	s.cache.InvalidateKind(ctx, models.KindResult)
	return result, nil
}

// removeStaleBlob best-effort deletes a file the row no longer references.
func (s *ResultService) removeStaleBlob(ctx context.Context, url string) {
	key := keyFromPublicURL(url, s.baseURL)
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, s.bucket, key); err != nil {
		s.logger.Warn("stale result file not removed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ResultService) compensateUpload(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, s.bucket, key); err != nil {
		s.logger.Warn("orphan result file not removed", zap.String("key", key), zap.Error(err))
	}
}
