package models

import "fmt"

// EntityKind enumerates the four content tables the portal manages. Bulk
// publish operations dispatch through this closed set so an arbitrary table
// name can never reach the database layer.
type EntityKind string

const (
	KindEvent        EntityKind = "events"
	KindResult       EntityKind = "results"
	KindTimetable    EntityKind = "timetables"
	KindAnnouncement EntityKind = "announcements"
)

// ParseEntityKind validates a raw kind string.
func ParseEntityKind(raw string) (EntityKind, error) {
	switch EntityKind(raw) {
	case KindEvent, KindResult, KindTimetable, KindAnnouncement:
		return EntityKind(raw), nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", raw)
	}
}
