package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cscinfonest/portal-api/internal/models"
)

type exportResultRepoStub struct {
	resultRepoStub
	rows []models.Result
}

func (r *exportResultRepoStub) List(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error) {
	return r.rows, len(r.rows), nil
}

type exportEventRepoStub struct {
	eventRepoStub
	rows []models.Event
}

func (r *exportEventRepoStub) List(ctx context.Context, filter models.EventFilter, from, to time.Time) ([]models.Event, int, error) {
	return r.rows, len(r.rows), nil
}

type exportTimetableRepoStub struct {
	timetableRepoStub
	rows []models.Timetable
}

func (r *exportTimetableRepoStub) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	return r.rows, len(r.rows), nil
}

func newExportServiceForTest(results *exportResultRepoStub, events *exportEventRepoStub) *ExportService {
	svc := NewExportService(results, events, &exportTimetableRepoStub{})
	svc.now = func() time.Time { return time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceResultsCSV(t *testing.T) {
	code := "CSC101"
	results := &exportResultRepoStub{rows: []models.Result{
		{
			Title:           "First Semester Results",
			AcademicSession: "2024-2025",
			Semester:        models.SemesterFirst,
			Level:           "100",
			CourseCode:      &code,
			FileName:        "results.pdf",
			IsPublished:     true,
			CreatedAt:       time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		},
	}}
	svc := newExportServiceForTest(results, &exportEventRepoStub{})

	file, err := svc.Results(context.Background(), models.ResultFilter{}, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "results-20250814.csv", file.FileName)
	require.Equal(t, "text/csv", file.ContentType)

	body := string(file.Data)
	require.True(t, strings.HasPrefix(body, "Title,Session,Semester,Level,Course Code,File Name,Published,Created"))
	require.Contains(t, body, "First Semester Results,2024-2025,first,100,CSC101,results.pdf,true,2025-03-03")
}

func TestExportServiceEventsPDF(t *testing.T) {
	events := &exportEventRepoStub{rows: []models.Event{
		{
			Title:    "Tech Week",
			DateTime: time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC),
			Location: "Main Hall",
		},
	}}
	svc := newExportServiceForTest(&exportResultRepoStub{}, events)

	file, err := svc.Events(context.Background(), models.EventFilter{}, time.Time{}, time.Time{}, FormatPDF)
	require.NoError(t, err)
	require.Equal(t, "events-20250814.pdf", file.FileName)
	require.Equal(t, "application/pdf", file.ContentType)
	require.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportServiceTimetablesCSV(t *testing.T) {
	timetables := &exportTimetableRepoStub{rows: []models.Timetable{
		{
			Title:           "Exam Timetable",
			AcademicSession: "2024-2025",
			Semester:        models.SemesterSecond,
			Level:           "300",
			Type:            models.TimetableExam,
			FileName:        "exams.pdf",
			IsPublished:     true,
			CreatedAt:       time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		},
	}}
	svc := NewExportService(&exportResultRepoStub{}, &exportEventRepoStub{}, timetables)
	svc.now = func() time.Time { return time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC) }

	file, err := svc.Timetables(context.Background(), models.TimetableFilter{}, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "timetables-20250814.csv", file.FileName)

	body := string(file.Data)
	require.True(t, strings.HasPrefix(body, "Title,Session,Semester,Level,Type,File Name,Published,Created"))
	require.Contains(t, body, "Exam Timetable,2024-2025,second,300,exam,exams.pdf,true,2025-06-02")
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(&exportResultRepoStub{}, &exportEventRepoStub{})

	_, err := svc.Results(context.Background(), models.ResultFilter{}, ExportFormat("xlsx"))
	requireAppError(t, err, "Format must be either csv or pdf")
}
