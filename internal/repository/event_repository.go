package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cscinfonest/portal-api/internal/models"
)

const eventColumns = "id, title, description, date_time, location, category, image_urls, is_published, created_at, updated_at"

// EventRepository provides persistence for events.
type EventRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewEventRepository creates the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

// List returns events within a date window, newest-first pagination metadata
// included. Listings default to published rows only.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter, from, to time.Time) ([]models.Event, int, error) {
	where := []string{"date_time >= $1", "date_time < $2"}
	args := []interface{}{from, to}

	published := true
	if filter.IsPublished != nil {
		published = *filter.IsPublished
	}
	where = append(where, fmt.Sprintf("is_published = $%d", len(args)+1))
	args = append(args, published)

	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf("SELECT %s FROM events WHERE %s ORDER BY date_time ASC", eventColumns, whereClause)
	query += paginate(filter.Limit, filter.Offset)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// GetByID returns an event by identifier.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindDuplicate looks for an event with the same title, date/time and
// location. excludeID skips the row being updated.
func (r *EventRepository) FindDuplicate(ctx context.Context, title string, dateTime time.Time, location, excludeID string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE title = $1 AND date_time = $2 AND location = $3", eventColumns)
	args := []interface{}{title, dateTime, location}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, args...); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := r.now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.ImageURLs == nil {
		event.ImageURLs = pq.StringArray{}
	}
	query := `INSERT INTO events (id, title, description, date_time, location, category, image_urls, is_published, created_at, updated_at)
VALUES (:id, :title, :description, :date_time, :location, :category, :image_urls, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update applies a partial patch and returns the updated row. updated_at is
// always refreshed.
func (r *EventRepository) Update(ctx context.Context, id string, patch map[string]interface{}) (*models.Event, error) {
	setClause, args := buildPatch(patch, eventPatchColumns, r.now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE events SET %s WHERE id = $%d RETURNING %s", setClause, len(args), eventColumns)

	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, args...); err != nil {
		return nil, err
	}
	return &event, nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// AvailableMonths returns the distinct YYYY-MM months of published events in
// the given window, ascending.
func (r *EventRepository) AvailableMonths(ctx context.Context, from, to time.Time) ([]string, error) {
	const query = `SELECT DISTINCT to_char(date_time, 'YYYY-MM') AS month FROM events
WHERE is_published = TRUE AND date_time >= $1 AND date_time < $2 ORDER BY month ASC`
	var months []string
	if err := r.db.SelectContext(ctx, &months, query, from, to); err != nil {
		return nil, fmt.Errorf("available months: %w", err)
	}
	return months, nil
}

// Counts returns total and published event counts.
func (r *EventRepository) Counts(ctx context.Context) (int, int, error) {
	return entityCounts(ctx, r.db, "events")
}

// CountCreatedBetween counts events created in [from, to).
func (r *EventRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	return createdBetween(ctx, r.db, "events", from, to)
}

// Recent returns the most recently touched events.
func (r *EventRepository) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events ORDER BY updated_at DESC LIMIT %d", eventColumns, limit)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// SearchTitle matches events by title substring, case-insensitively.
func (r *EventRepository) SearchTitle(ctx context.Context, term string, limit int) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE title ILIKE $1 LIMIT %d", eventColumns, limit)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

// BulkSetPublished flips the publish flag for the given ids.
func (r *EventRepository) BulkSetPublished(ctx context.Context, ids []string, published bool) error {
	return bulkSetPublished(ctx, r.db, "events", ids, published, r.now().UTC())
}

var eventPatchColumns = map[string]struct{}{
	"title":        {},
	"description":  {},
	"date_time":    {},
	"location":     {},
	"category":     {},
	"image_urls":   {},
	"is_published": {},
}
