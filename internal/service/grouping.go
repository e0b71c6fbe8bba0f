package service

import (
	"strings"

	"github.com/cscinfonest/portal-api/internal/models"
)

// GroupResultsByLevel folds a flat result list into the fixed per-level
// dashboard matrix. Levels without any row are omitted; when duplicates
// exist for a semester slot the first match wins.
func GroupResultsByLevel(results []models.Result) []models.GroupedResult {
	grouped := make([]models.GroupedResult, 0, len(models.Levels))

	for _, level := range models.Levels {
		var levelResults []models.Result
		for _, result := range results {
			if result.Level == level {
				levelResults = append(levelResults, result)
			}
		}
		if len(levelResults) == 0 {
			continue
		}

		entry := models.GroupedResult{Level: level}
		for i := range levelResults {
			switch strings.ToLower(string(levelResults[i].Semester)) {
			case string(models.SemesterFirst):
				if entry.FirstSemester == nil {
					entry.FirstSemester = &levelResults[i]
				}
			case string(models.SemesterSecond):
				if entry.SecondSemester == nil {
					entry.SecondSemester = &levelResults[i]
				}
			}
		}
		grouped = append(grouped, entry)
	}

	return grouped
}

// GroupTimetablesByLevel folds a flat timetable list into the per-level
// matrix crossed with type and semester, up to four slots per level.
func GroupTimetablesByLevel(timetables []models.Timetable) []models.GroupedTimetable {
	grouped := make([]models.GroupedTimetable, 0, len(models.Levels))

	for _, level := range models.Levels {
		var levelTimetables []models.Timetable
		for _, timetable := range timetables {
			if timetable.Level == level {
				levelTimetables = append(levelTimetables, timetable)
			}
		}
		if len(levelTimetables) == 0 {
			continue
		}

		entry := models.GroupedTimetable{Level: level}
		for i := range levelTimetables {
			tt := &levelTimetables[i]
			exam := tt.Type == models.TimetableExam
			switch strings.ToLower(string(tt.Semester)) {
			case string(models.SemesterFirst):
				if exam && entry.ExamFirstSemester == nil {
					entry.ExamFirstSemester = tt
				}
				if !exam && entry.LectureFirstSemester == nil {
					entry.LectureFirstSemester = tt
				}
			case string(models.SemesterSecond):
				if exam && entry.ExamSecondSemester == nil {
					entry.ExamSecondSemester = tt
				}
				if !exam && entry.LectureSecondSemester == nil {
					entry.LectureSecondSemester = tt
				}
			}
		}
		grouped = append(grouped, entry)
	}

	return grouped
}
