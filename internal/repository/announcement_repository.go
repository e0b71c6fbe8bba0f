package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cscinfonest/portal-api/internal/models"
)

const announcementColumns = "id, title, content, priority, target_audience, expires_at, is_published, created_at, updated_at"

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db, now: time.Now}
}

// List returns announcements matching the filter, newest first. Expired
// rows are hidden unless the filter opts in.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	where := []string{}
	args := []interface{}{}

	if filter.Priority != "" {
		where = append(where, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.TargetAudience != "" {
		where = append(where, fmt.Sprintf("target_audience = $%d", len(args)+1))
		args = append(args, filter.TargetAudience)
	}

	published := true
	if filter.IsPublished != nil {
		published = *filter.IsPublished
	}
	where = append(where, fmt.Sprintf("is_published = $%d", len(args)+1))
	args = append(args, published)

	if !filter.IncludeExpired {
		where = append(where, fmt.Sprintf("(expires_at IS NULL OR expires_at > $%d)", len(args)+1))
		args = append(args, r.now().UTC())
	}

	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf("SELECT %s FROM announcements WHERE %s ORDER BY created_at DESC", announcementColumns, whereClause)
	query += paginate(filter.Limit, filter.Offset)

	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM announcements WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf("SELECT %s FROM announcements WHERE id = $1", announcementColumns)
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := r.now().UTC()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now
	query := `INSERT INTO announcements (id, title, content, priority, target_audience, expires_at, is_published, created_at, updated_at)
VALUES (:id, :title, :content, :priority, :target_audience, :expires_at, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update applies a partial patch and returns the updated row.
func (r *AnnouncementRepository) Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Announcement, error) {
	setClause, args := buildPatch(patch, announcementPatchColumns, r.now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE announcements SET %s WHERE id = $%d RETURNING %s", setClause, len(args), announcementColumns)

	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, args...); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}

// Counts returns total and published announcement counts.
func (r *AnnouncementRepository) Counts(ctx context.Context) (int, int, error) {
	return entityCounts(ctx, r.db, "announcements")
}

// CountCreatedBetween counts announcements created in [from, to).
func (r *AnnouncementRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return createdBetween(ctx, r.db, "announcements", from, to)
}

// Recent returns the most recently touched announcements.
func (r *AnnouncementRepository) Recent(ctx context.Context, limit int) ([]models.Announcement, error) {
	query := fmt.Sprintf("SELECT %s FROM announcements ORDER BY updated_at DESC LIMIT %d", announcementColumns, limit)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query); err != nil {
		return nil, fmt.Errorf("recent announcements: %w", err)
	}
	return announcements, nil
}

// SearchTitle matches announcements by title substring.
func (r *AnnouncementRepository) SearchTitle(ctx context.Context, term string, limit int) ([]models.Announcement, error) {
	query := fmt.Sprintf("SELECT %s FROM announcements WHERE title ILIKE $1 LIMIT %d", announcementColumns, limit)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("search announcements: %w", err)
	}
	return announcements, nil
}

// BulkSetPublished flips the publish flag for the given ids.
func (r *AnnouncementRepository) BulkSetPublished(ctx context.Context, ids []string, published bool) error {
	return bulkSetPublished(ctx, r.db, "announcements", ids, published, r.now().UTC())
}

var announcementPatchColumns = map[string]struct{}{
	"title":           {},
	"content":         {},
	"priority":        {},
	"target_audience": {},
	"expires_at":      {},
	"is_published":    {},
}
