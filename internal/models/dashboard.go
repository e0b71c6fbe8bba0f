package models

import "time"

// DashboardStats summarises content volumes for the admin dashboard.
type DashboardStats struct {
	TotalEvents            int    `json:"total_events"`
	TotalAnnouncements     int    `json:"total_announcements"`
	TotalResults           int    `json:"total_results"`
	TotalTimetables        int    `json:"total_timetables"`
	PublishedEvents        int    `json:"published_events"`
	PublishedAnnouncements int    `json:"published_announcements"`
	PublishedResults       int    `json:"published_results"`
	PublishedTimetables    int    `json:"published_timetables"`
	PendingApprovals       int    `json:"pending_approvals"`
	RecentUploads          int    `json:"recent_uploads"`
	ActiveSession          string `json:"active_session"`
}

// ActivityItem is a recent create/update across any content kind.
type ActivityItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// MonthlyCount tallies rows created per month for the analytics chart.
type MonthlyCount struct {
	Name          string `json:"name"`
	Events        int    `json:"events"`
	Results       int    `json:"results"`
	Announcements int    `json:"announcements"`
	Timetables    int    `json:"timetables"`
}

// LevelShare is one slice of the published-results level distribution.
type LevelShare struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage int    `json:"percentage"`
}

// AnalyticsData groups chart inputs for the admin dashboard.
type AnalyticsData struct {
	ChartData         []MonthlyCount `json:"chart_data"`
	LevelDistribution []LevelShare   `json:"level_distribution"`
}

// QuickMetric is a this-month versus last-month comparison.
type QuickMetric struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change int    `json:"change"`
	Trend  string `json:"trend"`
}

// SearchResults groups cross-content title search hits.
type SearchResults struct {
	Events        []Event        `json:"events"`
	Announcements []Announcement `json:"announcements"`
	Results       []Result       `json:"results"`
	Timetables    []Timetable    `json:"timetables"`
}

// SessionContent bundles all uploads for one academic session.
type SessionContent struct {
	Results    []Result    `json:"results"`
	Timetables []Timetable `json:"timetables"`
}
