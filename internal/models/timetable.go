package models

import "time"

// TimetableType distinguishes exam and lecture timetables.
type TimetableType string

const (
	TimetableExam    TimetableType = "exam"
	TimetableLecture TimetableType = "lecture"
)

// ValidTimetableType reports whether the raw value is a known type.
func ValidTimetableType(raw string) bool {
	switch TimetableType(raw) {
	case TimetableExam, TimetableLecture:
		return true
	}
	return false
}

// Timetable is an uploaded timetable document. At most one timetable exists
// per (academic_session, semester, level, type) tuple.
type Timetable struct {
	ID              string        `db:"id" json:"id"`
	Title           string        `db:"title" json:"title"`
	Description     *string       `db:"description" json:"description,omitempty"`
	AcademicSession string        `db:"academic_session" json:"academic_session"`
	Semester        Semester      `db:"semester" json:"semester"`
	Level           string        `db:"level" json:"level"`
	Type            TimetableType `db:"type" json:"type"`
	FileURL         string        `db:"file_url" json:"file_url"`
	FileName        string        `db:"file_name" json:"file_name"`
	FileSize        int64         `db:"file_size" json:"file_size"`
	IsPublished     bool          `db:"is_published" json:"is_published"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// TimetableFilter narrows timetable listings.
type TimetableFilter struct {
	Level           string
	Semester        string
	AcademicSession string
	Type            string
	Search          string
	IsPublished     *bool
	Limit           int
	Offset          int
}

// GroupedTimetable is the per-level dashboard view of current-session
// timetables, crossed with type and semester.
type GroupedTimetable struct {
	Level                 string     `json:"level"`
	ExamFirstSemester     *Timetable `json:"exam_first_semester,omitempty"`
	ExamSecondSemester    *Timetable `json:"exam_second_semester,omitempty"`
	LectureFirstSemester  *Timetable `json:"lecture_first_semester,omitempty"`
	LectureSecondSemester *Timetable `json:"lecture_second_semester,omitempty"`
}
