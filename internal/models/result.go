package models

import "time"

// Semester values accepted for results and timetables.
type Semester string

const (
	SemesterFirst  Semester = "first"
	SemesterSecond Semester = "second"
)

// ValidSemester reports whether the raw value is a known semester.
func ValidSemester(raw string) bool {
	switch Semester(raw) {
	case SemesterFirst, SemesterSecond:
		return true
	}
	return false
}

// Levels lists the fixed ordered set of academic levels.
var Levels = []string{"100", "200", "300", "400", "500"}

// ValidLevel reports whether the raw value is a known level.
func ValidLevel(raw string) bool {
	for _, level := range Levels {
		if level == raw {
			return true
		}
	}
	return false
}

// Result is an uploaded result document for a level/semester combination.
type Result struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     *string   `db:"description" json:"description,omitempty"`
	AcademicSession string    `db:"academic_session" json:"academic_session"`
	Semester        Semester  `db:"semester" json:"semester"`
	Level           string    `db:"level" json:"level"`
	CourseCode      *string   `db:"course_code" json:"course_code,omitempty"`
	FileURL         string    `db:"file_url" json:"file_url"`
	FileName        string    `db:"file_name" json:"file_name"`
	FileSize        int64     `db:"file_size" json:"file_size"`
	IsPublished     bool      `db:"is_published" json:"is_published"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ResultFilter narrows result listings. Search matches title, description or
// course code case-insensitively. A nil IsPublished applies the public
// default of published-only rows.
type ResultFilter struct {
	Level           string
	Semester        string
	AcademicSession string
	Search          string
	IsPublished     *bool
	Limit           int
	Offset          int
}

// GroupedResult is the per-level dashboard view of current-session results.
type GroupedResult struct {
	Level          string  `json:"level"`
	FirstSemester  *Result `json:"first_semester,omitempty"`
	SecondSemester *Result `json:"second_semester,omitempty"`
}
