package models

import (
	"time"

	"github.com/lib/pq"
)

// Event is a department event shown on the public events page.
type Event struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description *string        `db:"description" json:"description,omitempty"`
	DateTime    time.Time      `db:"date_time" json:"date_time"`
	Location    string         `db:"location" json:"location"`
	Category    *string        `db:"category" json:"category,omitempty"`
	ImageURLs   pq.StringArray `db:"image_urls" json:"image_urls"`
	IsPublished bool           `db:"is_published" json:"is_published"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows event listings. Listings are always constrained to the
// current calendar year; Month (YYYY-MM) narrows further within it. A nil
// IsPublished applies the public default of published-only rows.
type EventFilter struct {
	Month       string
	IsPublished *bool
	Limit       int
	Offset      int
}
