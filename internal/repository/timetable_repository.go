package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cscinfonest/portal-api/internal/models"
)

const timetableColumns = "id, title, description, academic_session, semester, level, type, file_url, file_name, file_size, is_published, created_at, updated_at"

// TimetableRepository provides persistence for timetable documents.
type TimetableRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewTimetableRepository creates the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db, now: time.Now}
}

// List returns timetables matching the filter, newest first.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	where := []string{}
	args := []interface{}{}

	if filter.Level != "" {
		where = append(where, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Semester != "" {
		where = append(where, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.AcademicSession != "" {
		where = append(where, fmt.Sprintf("academic_session = $%d", len(args)+1))
		args = append(args, filter.AcademicSession)
	}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	published := true
	if filter.IsPublished != nil {
		published = *filter.IsPublished
	}
	where = append(where, fmt.Sprintf("is_published = $%d", len(args)+1))
	args = append(args, published)

	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + term + "%"
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+2))
		args = append(args, pattern, pattern)
	}

	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf("SELECT %s FROM timetables WHERE %s ORDER BY created_at DESC", timetableColumns, whereClause)
	query += paginate(filter.Limit, filter.Offset)

	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM timetables WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}
	return timetables, total, nil
}

// ListBySession returns the published rows of one academic session ordered
// for grouping.
func (r *TimetableRepository) ListBySession(ctx context.Context, session string) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE academic_session = $1 AND is_published = TRUE ORDER BY level ASC, type ASC, semester ASC", timetableColumns)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, session); err != nil {
		return nil, fmt.Errorf("list session timetables: %w", err)
	}
	return timetables, nil
}

// AllBySession returns every row of one academic session, drafts included,
// newest first. Used by the admin dashboard.
func (r *TimetableRepository) AllBySession(ctx context.Context, session string) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE academic_session = $1 ORDER BY created_at DESC", timetableColumns)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, session); err != nil {
		return nil, fmt.Errorf("list session timetables: %w", err)
	}
	return timetables, nil
}

// GetByID returns a timetable by identifier.
func (r *TimetableRepository) GetByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE id = $1", timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// FindByTuple looks for the timetable occupying an academic tuple. At most
// one may exist per (session, semester, level, type). excludeID skips the
// row being updated.
func (r *TimetableRepository) FindByTuple(ctx context.Context, session string, semester models.Semester, level string, ttype models.TimetableType, excludeID string) (*models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE academic_session = $1 AND semester = $2 AND level = $3 AND type = $4", timetableColumns)
	args := []interface{}{session, semester, level, ttype}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, args...); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// Create inserts a new timetable.
func (r *TimetableRepository) Create(ctx context.Context, timetable *models.Timetable) error {
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	now := r.now().UTC()
	timetable.CreatedAt = now
	timetable.UpdatedAt = now
	query := `INSERT INTO timetables (id, title, description, academic_session, semester, level, type, file_url, file_name, file_size, is_published, created_at, updated_at)
VALUES (:id, :title, :description, :academic_session, :semester, :level, :type, :file_url, :file_name, :file_size, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, timetable); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// Update applies a partial patch and returns the updated row.
func (r *TimetableRepository) Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Timetable, error) {
	setClause, args := buildPatch(patch, timetablePatchColumns, r.now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE timetables SET %s WHERE id = $%d RETURNING %s", setClause, len(args), timetableColumns)

	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, args...); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// Delete removes a timetable.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM timetables WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	return nil
}

// Counts returns total and published timetable counts.
func (r *TimetableRepository) Counts(ctx context.Context) (int, int, error) {
	return entityCounts(ctx, r.db, "timetables")
}

// CountCreatedBetween counts timetables created in [from, to).
func (r *TimetableRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return createdBetween(ctx, r.db, "timetables", from, to)
}

// Recent returns the most recently touched timetables.
func (r *TimetableRepository) Recent(ctx context.Context, limit int) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables ORDER BY updated_at DESC LIMIT %d", timetableColumns, limit)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query); err != nil {
		return nil, fmt.Errorf("recent timetables: %w", err)
	}
	return timetables, nil
}

// SearchTitle matches timetables by title substring.
func (r *TimetableRepository) SearchTitle(ctx context.Context, term string, limit int) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE title ILIKE $1 LIMIT %d", timetableColumns, limit)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("search timetables: %w", err)
	}
	return timetables, nil
}

// SetPublished flips the publish flag on one row and returns the updated row.
func (r *TimetableRepository) SetPublished(ctx context.Context, id string, published bool) (*models.Timetable, error) {
	query := "UPDATE timetables SET is_published = $1, updated_at = $2 WHERE id = $3 RETURNING " + timetableColumns
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, published, r.now().UTC(), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("toggle timetable publish: %w", err)
	}
	return &timetable, nil
}

// BulkSetPublished flips the publish flag for the given ids.
func (r *TimetableRepository) BulkSetPublished(ctx context.Context, ids []string, published bool) error {
	return bulkSetPublished(ctx, r.db, "timetables", ids, published, r.now().UTC())
}

var timetablePatchColumns = map[string]struct{}{
	"title":            {},
	"description":      {},
	"academic_session": {},
	"semester":         {},
	"level":            {},
	"type":             {},
	"file_url":         {},
	"file_name":        {},
	"file_size":        {},
	"is_published":     {},
}
