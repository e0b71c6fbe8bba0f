package models

import "time"

// AnnouncementPriority grades announcement urgency.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityMedium AnnouncementPriority = "medium"
	PriorityHigh   AnnouncementPriority = "high"
)

// ValidPriority reports whether the raw value is a known priority.
func ValidPriority(raw string) bool {
	switch AnnouncementPriority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Announcement is a departmental notice. A nil TargetAudience means the
// announcement addresses everyone; a nil ExpiresAt means it never expires.
type Announcement struct {
	ID             string               `db:"id" json:"id"`
	Title          string               `db:"title" json:"title"`
	Content        string               `db:"content" json:"content"`
	Priority       AnnouncementPriority `db:"priority" json:"priority"`
	TargetAudience *string              `db:"target_audience" json:"target_audience,omitempty"`
	ExpiresAt      *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	IsPublished    bool                 `db:"is_published" json:"is_published"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updated_at"`
}

// AnnouncementFilter narrows announcement listings. Expired rows are hidden
// unless IncludeExpired is set.
type AnnouncementFilter struct {
	Priority       string
	TargetAudience string
	IsPublished    *bool
	IncludeExpired bool
	Limit          int
	Offset         int
}
