package service

import (
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

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
}

type CreateAnnouncementRequest struct {
	Title          string
	Content        string
	Priority       string
	TargetAudience string
	IsPublished    bool
	ExpiresAt      *time.Time
}

type UpdateAnnouncementRequest struct {
	Title          *string
	Content        *string
	Priority       *string
	TargetAudience *string
	IsPublished    *bool
	ExpiresAt      *time.Time
	ClearExpiry    bool
}

type AnnouncementService struct {
	repo   announcementRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

func NewAnnouncementService(repo announcementRepository, cache *CacheService, logger *zap.Logger) *AnnouncementService {
	return &AnnouncementService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// List serves announcements. Public reads default to published rows with
// the expiry window applied; admin callers override via the filter.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	if filter.Priority != "" && !models.ValidPriority(filter.Priority) {
		return nil, 0, appErrors.ErrValidation.Clone("Priority must be one of low, medium, high")
	}
	announcements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch announcements: %s", err.Error()))
	}
	return announcements, total, nil
}

func (s *AnnouncementService) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid announcement ID provided")
	}
	announcement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Announcement not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch announcement: %s", err.Error()))
	}
	return announcement, nil
}

func (s *AnnouncementService) Create(ctx context.Context, req CreateAnnouncementRequest) (*models.Announcement, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		return nil, appErrors.ErrValidation.Clone("Missing required fields: title and content are required")
	}

	priority := models.PriorityMedium
	if p := strings.ToLower(strings.TrimSpace(req.Priority)); p != "" {
		priority = models.AnnouncementPriority(p)
		if !models.ValidPriority(string(priority)) {
			return nil, appErrors.ErrValidation.Clone("Priority must be one of low, medium, high")
		}
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(s.now()) {
		return nil, appErrors.ErrValidation.Clone("Expiry must be in the future")
	}

	announcement := &models.Announcement{
		Title:       req.Title,
		Content:     req.Content,
		Priority:    priority,
		IsPublished: req.IsPublished,
		ExpiresAt:   req.ExpiresAt,
	}
	if audience := strings.TrimSpace(req.TargetAudience); audience != "" {
		announcement.TargetAudience = &audience
	}

	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to save announcement: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindAnnouncement)
	s.logger.Info("announcement created",
		zap.String("announcement_id", announcement.ID),
		zap.String("priority", string(announcement.Priority)))
	return announcement, nil
}

func (s *AnnouncementService) Update(ctx context.Context, id string, req UpdateAnnouncementRequest) (*models.Announcement, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.ErrValidation.Clone("Invalid announcement ID provided")
	}

	patch := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, appErrors.ErrValidation.Clone("Title cannot be empty")
		}
		patch["title"] = title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, appErrors.ErrValidation.Clone("Content cannot be empty")
		}
		patch["content"] = content
	}
	if req.Priority != nil {
		priority := models.AnnouncementPriority(strings.ToLower(strings.TrimSpace(*req.Priority)))
		if !models.ValidPriority(string(priority)) {
			return nil, appErrors.ErrValidation.Clone("Priority must be one of low, medium, high")
		}
		patch["priority"] = priority
	}
	if req.TargetAudience != nil {
		patch["target_audience"] = nullableText(*req.TargetAudience)
	}
	if req.IsPublished != nil {
		patch["is_published"] = *req.IsPublished
	}
	switch {
	case req.ClearExpiry:
		patch["expires_at"] = nil
	case req.ExpiresAt != nil:
		patch["expires_at"] = *req.ExpiresAt
	}

	announcement, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound.Clone("Announcement not found")
		}
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to update announcement: %s", err.Error()))
	}

	s.cache.InvalidateKind(ctx, models.KindAnnouncement)
	return announcement, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return appErrors.ErrValidation.Clone("Invalid announcement ID provided")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound.Clone("Announcement not found")
		}
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch announcement: %s", err.Error()))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to delete announcement: %s", err.Error()))
	}
	s.cache.InvalidateKind(ctx, models.KindAnnouncement)
	return nil
}
