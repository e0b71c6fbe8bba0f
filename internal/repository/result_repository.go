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

const resultColumns = "id, title, description, academic_session, semester, level, course_code, file_url, file_name, file_size, is_published, created_at, updated_at"

// ResultRepository provides persistence for result documents.
type ResultRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewResultRepository creates the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db, now: time.Now}
}

// List returns results matching the filter, newest first. Listings default
// to published rows only; search matches title, description or course code.
func (r *ResultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error) {
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

	published := true
	if filter.IsPublished != nil {
		published = *filter.IsPublished
	}
	where = append(where, fmt.Sprintf("is_published = $%d", len(args)+1))
	args = append(args, published)

	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + term + "%"
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR course_code ILIKE $%d)", len(args)+1, len(args)+2, len(args)+3))
		args = append(args, pattern, pattern, pattern)
	}

	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf("SELECT %s FROM results WHERE %s ORDER BY created_at DESC", resultColumns, whereClause)
	query += paginate(filter.Limit, filter.Offset)

	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM results WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}
	return results, total, nil
}

// ListBySession returns the published rows of one academic session ordered
// for grouping.
func (r *ResultRepository) ListBySession(ctx context.Context, session string) ([]models.Result, error) {
	query := fmt.Sprintf("SELECT %s FROM results WHERE academic_session = $1 AND is_published = TRUE ORDER BY level ASC, semester ASC", resultColumns)
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, session); err != nil {
		return nil, fmt.Errorf("list session results: %w", err)
	}
	return results, nil
}

// AllBySession returns every row of one academic session, drafts included,
// newest first. Used by the admin dashboard.
func (r *ResultRepository) AllBySession(ctx context.Context, session string) ([]models.Result, error) {
	query := fmt.Sprintf("SELECT %s FROM results WHERE academic_session = $1 ORDER BY created_at DESC", resultColumns)
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, session); err != nil {
		return nil, fmt.Errorf("list session results: %w", err)
	}
	return results, nil
}

// GetByID returns a result by identifier.
func (r *ResultRepository) GetByID(ctx context.Context, id string) (*models.Result, error) {
	query := fmt.Sprintf("SELECT %s FROM results WHERE id = $1", resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create inserts a new result.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := r.now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	query := `INSERT INTO results (id, title, description, academic_session, semester, level, course_code, file_url, file_name, file_size, is_published, created_at, updated_at)
VALUES (:id, :title, :description, :academic_session, :semester, :level, :course_code, :file_url, :file_name, :file_size, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// Update applies a partial patch and returns the updated row.
func (r *ResultRepository) Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Result, error) {
	setClause, args := buildPatch(patch, resultPatchColumns, r.now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE results SET %s WHERE id = $%d RETURNING %s", setClause, len(args), resultColumns)

	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a result.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM results WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

// Counts returns total and published result counts.
func (r *ResultRepository) Counts(ctx context.Context) (int, int, error) {
	return entityCounts(ctx, r.db, "results")
}

// CountCreatedBetween counts results created in [from, to).
func (r *ResultRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return createdBetween(ctx, r.db, "results", from, to)
}

// Recent returns the most recently touched results.
func (r *ResultRepository) Recent(ctx context.Context, limit int) ([]models.Result, error) {
	query := fmt.Sprintf("SELECT %s FROM results ORDER BY updated_at DESC LIMIT %d", resultColumns, limit)
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query); err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	return results, nil
}

// SearchTitle matches results by title or course code substring.
func (r *ResultRepository) SearchTitle(ctx context.Context, term string, limit int) ([]models.Result, error) {
	pattern := "%" + term + "%"
	query := fmt.Sprintf("SELECT %s FROM results WHERE title ILIKE $1 OR course_code ILIKE $2 LIMIT %d", resultColumns, limit)
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, pattern, pattern); err != nil {
		return nil, fmt.Errorf("search results: %w", err)
	}
	return results, nil
}

// LevelDistribution tallies published results per level.
func (r *ResultRepository) LevelDistribution(ctx context.Context) (map[string]int, error) {
	const query = "SELECT level, COUNT(*) AS count FROM results WHERE is_published = TRUE GROUP BY level"
	rows := []struct {
		Level string `db:"level"`
		Count int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("level distribution: %w", err)
	}
	distribution := make(map[string]int, len(rows))
	for _, row := range rows {
		distribution[row.Level] = row.Count
	}
	return distribution, nil
}

// SetPublished flips the publish flag on one row and returns the updated row.
func (r *ResultRepository) SetPublished(ctx context.Context, id string, published bool) (*models.Result, error) {
	query := "UPDATE results SET is_published = $1, updated_at = $2 WHERE id = $3 RETURNING " + resultColumns
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, published, r.now().UTC(), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("toggle result publish: %w", err)
	}
	return &result, nil
}

// BulkSetPublished flips the publish flag for the given ids.
func (r *ResultRepository) BulkSetPublished(ctx context.Context, ids []string, published bool) error {
	return bulkSetPublished(ctx, r.db, "results", ids, published, r.now().UTC())
}

var resultPatchColumns = map[string]struct{}{
	"title":            {},
	"description":      {},
	"academic_session": {},
	"semester":         {},
	"level":            {},
	"course_code":      {},
	"file_url":         {},
	"file_name":        {},
	"file_size":        {},
	"is_published":     {},
}
