package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cscinfonest/portal-api/internal/models"
	"github.com/cscinfonest/portal-api/internal/repository"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter, from, to time.Time) ([]models.Event, int, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	FindDuplicate(ctx context.Context, title string, dateTime time.Time, location, excludeID string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	AvailableMonths(ctx context.Context, from, to time.Time) ([]string, error)
}

// CreateEventRequest carries a parsed event form. Image is optional.
type CreateEventRequest struct {
	Title       string
	Description string
	DateTime    time.Time
	Location    string
	Category    string
	IsPublished bool
	Image       *models.FileUpload
}

// UpdateEventRequest is a partial payload. Nil pointers mean the field was
// absent from the form and must keep its stored value.
type UpdateEventRequest struct {
	Title       string
	DateTime    time.Time
	Location    string
	Description *string
	Category    *string
	IsPublished *bool
	Image       *models.FileUpload
	RemoveImage bool
}

type EventService struct {
	repo      eventRepository
	blobs     BlobStore
	cache     *CacheService
	logger    *zap.Logger
	bucket    string
	baseURL   string
	maxUpload int64
	now       func() time.Time
}

func NewEventService(repo eventRepository, blobs BlobStore, cache *CacheService, logger *zap.Logger, bucket, baseURL string, maxUpload int64) *EventService {
	return &EventService{
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

// yearWindow returns the half-open range covering the current calendar year.
func (s *EventService) yearWindow() (time.Time, time.Time) {
	year := s.now().UTC().Year()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// List serves published events from the current calendar year, optionally
// narrowed to one month. Months outside the current year are rejected
// before any query is issued.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	from, to := s.yearWindow()

	if month := strings.TrimSpace(filter.Month); month != "" {
		if !monthPattern.MatchString(month) {
			return nil, 0, appErrors.ErrValidation.Clone("Invalid month format. Use YYYY-MM format (e.g., 2025-01)")
		}
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, 0, appErrors.ErrValidation.Clone("Invalid month format. Use YYYY-MM format (e.g., 2025-01)")
		}
		if parsed.Year() != s.now().UTC().Year() {
			return nil, 0, appErrors.ErrValidation.Clone(fmt.Sprintf("Only events from %d can be fetched", s.now().UTC().Year()))
		}
		from = parsed
		to = parsed.AddDate(0, 1, 0)
	}

	events, total, err := s.repo.List(ctx, filter, from, to)
	if err != nil {
		return nil, 0, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch events: %s", err.Error()))
	}
	return events, total, nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid event ID provided")
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Event not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch event: %s", err.Error()))
	}
	return event, nil
}

// AvailableMonths lists the YYYY-MM values that have at least one published
// event in the current year, for the public month picker.
func (s *EventService) AvailableMonths(ctx context.Context) ([]string, error) {
	from, to := s.yearWindow()
	months, err := s.repo.AvailableMonths(ctx, from, to)
	if err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch event months: %s", err.Error()))
	}
	return months, nil
}

func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.DateTime.IsZero() || req.Location == "" {
		return nil, appErrors.ErrValidation.Clone("Missing required fields: title, date/time, and location are required")
	}
	if req.DateTime.Before(s.now()) {
		return nil, appErrors.ErrValidation.Clone("Event date cannot be in the past")
	}

	existing, err := s.repo.FindDuplicate(ctx, req.Title, req.DateTime, req.Location, "")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to check for existing events: %s", err.Error()))
	}
	if existing != nil {
		return nil, appErrors.ErrConflict.Clone(duplicateEventMessage(existing.Title))
	}

	event := &models.Event{
		Title:       req.Title,
		DateTime:    req.DateTime,
		Location:    req.Location,
		IsPublished: req.IsPublished,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		event.Description = &desc
	}
	if cat := strings.TrimSpace(req.Category); cat != "" {
		event.Category = &cat
	}

	var uploadedKey string
	if req.Image != nil {
		if verr := validateImageUpload(req.Image, s.maxUpload); verr != nil {
			return nil, verr
		}
		uploadedKey = eventImageKey(s.now(), req.Image.Name)
		if err := s.blobs.Upload(ctx, s.bucket, uploadedKey, bytes.NewReader(req.Image.Data), req.Image.ContentType); err != nil {
			return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to upload event image: %s", err.Error()))
		}
		event.ImageURLs = []string{s.blobs.PublicURL(s.bucket, uploadedKey)}
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.compensateUpload(ctx, uploadedKey)
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrConflict.Clone(duplicateEventMessage(req.Title))
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to save event: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindEvent)
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("title", event.Title))
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id string, req UpdateEventRequest) (*models.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid event ID provided")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.DateTime.IsZero() || req.Location == "" {
		return nil, appErrors.ErrValidation.Clone("Missing required fields: title, date/time, and location are required")
	}
	if req.DateTime.Before(s.now()) {
		return nil, appErrors.ErrValidation.Clone("Event date cannot be in the past")
	}

	existing, err := s.repo.FindDuplicate(ctx, req.Title, req.DateTime, req.Location, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to check for existing events: %s", err.Error()))
	}
	if existing != nil {
		return nil, appErrors.ErrConflict.Clone(duplicateEventMessage(existing.Title))
	}

	patch := map[string]interface{}{
		"title":     req.Title,
		"date_time": req.DateTime,
		"location":  req.Location,
	}
	if req.Description != nil {
		patch["description"] = nullableText(*req.Description)
	}
	if req.Category != nil {
		patch["category"] = nullableText(*req.Category)
	}
	if req.IsPublished != nil {
		patch["is_published"] = *req.IsPublished
	}

	var staleURLs []string
	if req.Image != nil || req.RemoveImage {
		if current, ferr := s.repo.GetByID(ctx, id); ferr == nil {
			staleURLs = current.ImageURLs
		}
	}

	var uploadedKey string
	switch {
	case req.Image != nil:
		if verr := validateImageUpload(req.Image, s.maxUpload); verr != nil {
			return nil, verr
		}
		uploadedKey = eventImageKey(s.now(), req.Image.Name)
		if err := s.blobs.Upload(ctx, s.bucket, uploadedKey, bytes.NewReader(req.Image.Data), req.Image.ContentType); err != nil {
			return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to upload event image: %s", err.Error()))
		}
		patch["image_urls"] = pqStringArray([]string{s.blobs.PublicURL(s.bucket, uploadedKey)})
	case req.RemoveImage:
		patch["image_urls"] = pqStringArray(nil)
	}

	event, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.compensateUpload(ctx, uploadedKey)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Event not found")
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.ErrConflict.Clone(duplicateEventMessage(req.Title))
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to update event: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindEvent)
	for _, url := range staleURLs {
		s.removeStaleBlob(ctx, url)
	}
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return appErrors.ErrValidation.Clone("Invalid event ID provided")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound.Clone("Event not found")
		}
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch event: %s", err.Error()))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to delete event: %s", err.Error()))
	}
	s.cache.InvalidateKind(ctx, models.KindEvent)
	return nil
}

// compensateUpload removes an already-stored blob after a failed row write
// so no orphan object survives the aborted mutation.
func (s *EventService) compensateUpload(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, s.bucket, key); err != nil {
		s.logger.Warn("orphan event image not removed", zap.String("key", key), zap.Error(err))
	}
}

// removeStaleBlob best-effort deletes an image the row no longer references.
func (s *EventService) removeStaleBlob(ctx context.Context, url string) {
	key := keyFromPublicURL(url, s.baseURL)
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, s.bucket, key); err != nil {
		s.logger.Warn("stale event image not removed", zap.String("key", key), zap.Error(err))
	}
}

func duplicateEventMessage(title string) string {
	return fmt.Sprintf("An identical event already exists: %q at the same time and location", title)
}

func nullableText(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
