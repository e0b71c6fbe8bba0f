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
	"github.com/cscinfonest/portal-api/internal/repository"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	ListBySession(ctx context.Context, session string) ([]models.Timetable, error)
	GetByID(ctx context.Context, id string) (*models.Timetable, error)
	FindByTuple(ctx context.Context, session string, semester models.Semester, level string, ttype models.TimetableType, excludeID string) (*models.Timetable, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Timetable, error)
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) (*models.Timetable, error)
}

type CreateTimetableRequest struct {
	Title           string
	Description     string
	AcademicSession string
	Semester        string
	Level           string
	Type            string
	IsPublished     bool
	File            *models.FileUpload
}

type UpdateTimetableRequest struct {
	Title           string
	AcademicSession string
	Semester        string
	Level           string
	Type            string
	Description     *string
	IsPublished     *bool
	File            *models.FileUpload
}

type TimetableService struct {
	repo      timetableRepository
	blobs     BlobStore
	cache     *CacheService
	logger    *zap.Logger
	bucket    string
	baseURL   string
	maxUpload int64
	now       func() time.Time
}

func NewTimetableService(repo timetableRepository, blobs BlobStore, cache *CacheService, logger *zap.Logger, bucket, baseURL string, maxUpload int64) *TimetableService {
	return &TimetableService{
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

func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	timetables, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch timetables: %s", err.Error()))
	}
	return timetables, total, nil
}

// GroupedBySession folds the published timetables of one session into the
// per-level matrix crossed with type and semester.
func (s *TimetableService) GroupedBySession(ctx context.Context, session string) ([]models.GroupedTimetable, error) {
	session = strings.TrimSpace(session)
	if verr := validateAcademicSession(session); verr != nil {
		return nil, verr
	}

	cacheKey := fmt.Sprintf("grouped:%s", session)
	var cached []models.GroupedTimetable
	if s.cache.Get(ctx, models.KindTimetable, cacheKey, &cached) {
		return cached, nil
	}

	timetables, err := s.repo.ListBySession(ctx, session)
	if err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch timetables: %s", err.Error()))
	}
	grouped := GroupTimetablesByLevel(timetables)
	s.cache.Set(ctx, models.KindTimetable, cacheKey, grouped)
	return grouped, nil
}

func (s *TimetableService) GetByID(ctx context.Context, id string) (*models.Timetable, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid timetable ID provided")
	}
	timetable, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Timetable not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch timetable: %s", err.Error()))
	}
	return timetable, nil
}

func (s *TimetableService) Create(ctx context.Context, req CreateTimetableRequest) (*models.Timetable, error) {
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
	ttype := models.TimetableType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !models.ValidTimetableType(string(ttype)) {
		return nil, appErrors.ErrValidation.Clone("Type must be either exam or lecture")
	}
	if verr := validateDocumentUpload(req.File, s.maxUpload); verr != nil {
		return nil, verr
	}

	existing, err := s.repo.FindByTuple(ctx, req.AcademicSession, semester, level, ttype, "")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to check for existing timetables: %s", err.Error()))
	}
	if existing != nil {
		return nil, appErrors.ErrConflict.Clone(duplicateTimetableMessage(ttype, req.AcademicSession, semester, level, existing.Title))
	}

	key := documentKey(s.now(), req.AcademicSession, semester, level, req.File.Name)
	if err := s.blobs.Upload(ctx, s.bucket, key, bytes.NewReader(req.File.Data), req.File.ContentType); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to upload timetable file: %s", err.Error()))
	}

	timetable := &models.Timetable{
		Title:           req.Title,
		AcademicSession: req.AcademicSession,
		Semester:        semester,
		Level:           level,
		Type:            ttype,
		FileURL:         s.blobs.PublicURL(s.bucket, key),
		FileName:        req.File.Name,
		FileSize:        req.File.Size,
		IsPublished:     req.IsPublished,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		timetable.Description = &desc
	}

	if err := s.repo.Create(ctx, timetable); err != nil {
		s.compensateUpload(ctx, key)
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrConflict.Clone(duplicateTimetableMessage(ttype, req.AcademicSession, semester, level, req.Title))
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to save timetable: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindTimetable)
	s.logger.Info("timetable created",
		zap.String("timetable_id", timetable.ID),
		zap.String("session", timetable.AcademicSession),
		zap.String("type", string(timetable.Type)))
	return timetable, nil
}

func (s *TimetableService) Update(ctx context.Context, id string, req UpdateTimetableRequest) (*models.Timetable, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid timetable ID provided")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.AcademicSession = strings.TrimSpace(req.AcademicSession)
	if req.Title == "" || req.AcademicSession == "" {
		return nil, appErrors.ErrValidation.Clone("Missing required fields: title and academic_session are required")
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
	ttype := models.TimetableType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !models.ValidTimetableType(string(ttype)) {
		return nil, appErrors.ErrValidation.Clone("Type must be either exam or lecture")
	}

	// The row being updated is excluded so saving it unchanged never
	// trips the duplicate check.
	existing, err := s.repo.FindByTuple(ctx, req.AcademicSession, semester, level, ttype, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to check for existing timetables: %s", err.Error()))
	}
	if existing != nil {
		return nil, appErrors.ErrConflict.Clone(duplicateTimetableMessage(ttype, req.AcademicSession, semester, level, existing.Title))
	}

	patch := map[string]interface{}{
		"title":            req.Title,
		"academic_session": req.AcademicSession,
		"semester":         semester,
		"level":            level,
		"type":             ttype,
	}
	if req.Description != nil {
		patch["description"] = nullableText(*req.Description)
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
		if current, ferr := s.repo.GetByID(ctx, id); ferr == nil {
			staleFileURL = current.FileURL
		}
		uploadedKey = documentKey(s.now(), req.AcademicSession, semester, level, req.File.Name)
		if err := s.blobs.Upload(ctx, s.bucket, uploadedKey, bytes.NewReader(req.File.Data), req.File.ContentType); err != nil {
			return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to upload timetable file: %s", err.Error()))
		}
		patch["file_url"] = s.blobs.PublicURL(s.bucket, uploadedKey)
		patch["file_name"] = req.File.Name
		patch["file_size"] = req.File.Size
	}

	timetable, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.compensateUpload(ctx, uploadedKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Timetable not found")
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrConflict.Clone(duplicateTimetableMessage(ttype, req.AcademicSession, semester, level, req.Title))
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to update timetable: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindTimetable)
	s.removeStaleBlob(ctx, staleFileURL)
	return timetable, nil
}

func (s *TimetableService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return appErrors.ErrValidation.Clone("Invalid timetable ID provided")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound.Clone("Timetable not found")
		}
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch timetable: %s", err.Error()))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to delete timetable: %s", err.Error()))
	}
	s.cache.InvalidateKind(ctx, models.KindTimetable)
	return nil
}

func (s *TimetableService) SetPublished(ctx context.Context, id string, published bool) (*models.Timetable, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid timetable ID provided")
	}
	timetable, err := s.repo.SetPublished(ctx, id, published)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Timetable not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to update publish status: %s", err.Error()))
	}
	s.cache.InvalidateKind(ctx, models.KindTimetable)
	return timetable, nil
}

// removeStaleBlob best-effort deletes a file the row no longer references.
func (s *TimetableService) removeStaleBlob(ctx context.Context, url string) {
	key := keyFromPublicURL(url, s.baseURL)
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, s.bucket, key); err != nil {
		s.logger.Warn("stale timetable file not removed", zap.String("key", key), zap.Error(err))
	}
}

func (s *TimetableService) compensateUpload(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, s.bucket, key); err != nil {
		s.logger.Warn("orphan timetable file not removed", zap.String("key", key), zap.Error(err))
	}
}

func duplicateTimetableMessage(ttype models.TimetableType, session string, semester models.Semester, level, title string) string {
	return fmt.Sprintf("A %s timetable already exists for %s - %s semester, %s level: %q. Please update the existing one or use a different combination.",
		ttype, session, semester, level, title)
}
