package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cscinfonest/portal-api/internal/models"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
	"github.com/cscinfonest/portal-api/pkg/export"
)

// ExportFormat selects the admin download encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered download ready to stream to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders admin content listings as CSV or PDF downloads.
type ExportService struct {
	results    resultRepository
	events     eventRepository
	timetables timetableRepository
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	now        func() time.Time
}

func NewExportService(results resultRepository, events eventRepository, timetables timetableRepository) *ExportService {
	return &ExportService{
		results:    results,
		events:     events,
		timetables: timetables,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		now:        time.Now,
	}
}

// Results renders the filtered result listing in the requested format.
func (s *ExportService) Results(ctx context.Context, filter models.ResultFilter, format ExportFormat) (*ExportFile, error) {
	filter.Limit = 0
	filter.Offset = 0
	results, _, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch results: %s", err.Error()))
	}

	data := export.Dataset{
		Headers: []string{"Title", "Session", "Semester", "Level", "Course Code", "File Name", "Published", "Created"},
	}
	for _, r := range results {
		code := ""
		if r.CourseCode != nil {
			code = *r.CourseCode
		}
		data.Rows = append(data.Rows, map[string]string{
			"Title":       r.Title,
			"Session":     r.AcademicSession,
			"Semester":    string(r.Semester),
			"Level":       r.Level,
			"Course Code": code,
			"File Name":   r.FileName,
			"Published":   strconv.FormatBool(r.IsPublished),
			"Created":     r.CreatedAt.Format("2006-01-02"),
		})
	}
	return s.render(data, "Results Export", "results", format)
}

// Events renders the event listing for the given window in the requested
// format.
func (s *ExportService) Events(ctx context.Context, filter models.EventFilter, from, to time.Time, format ExportFormat) (*ExportFile, error) {
	filter.Limit = 0
	filter.Offset = 0
	events, _, err := s.events.List(ctx, filter, from, to)
	if err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch events: %s", err.Error()))
	}

	data := export.Dataset{
		Headers: []string{"Title", "Date", "Location", "Category", "Published"},
	}
	for _, e := range events {
		category := ""
		if e.Category != nil {
			category = *e.Category
		}
		data.Rows = append(data.Rows, map[string]string{
			"Title":     e.Title,
			"Date":      e.DateTime.Format("2006-01-02 15:04"),
			"Location":  e.Location,
			"Category":  category,
			"Published": strconv.FormatBool(e.IsPublished),
		})
	}
	return s.render(data, "Events Export", "events", format)
}

// Timetables renders the filtered timetable listing in the requested format.
func (s *ExportService) Timetables(ctx context.Context, filter models.TimetableFilter, format ExportFormat) (*ExportFile, error) {
	filter.Limit = 0
	filter.Offset = 0
	timetables, _, err := s.timetables.List(ctx, filter)
	if err != nil {
		return nil, appErrors.ErrGateway.Clone(fmt.Sprintf("Failed to fetch timetables: %s", err.Error()))
	}

	data := export.Dataset{
		Headers: []string{"Title", "Session", "Semester", "Level", "Type", "File Name", "Published", "Created"},
	}
	for _, tt := range timetables {
		data.Rows = append(data.Rows, map[string]string{
			"Title":     tt.Title,
			"Session":   tt.AcademicSession,
			"Semester":  string(tt.Semester),
			"Level":     tt.Level,
			"Type":      string(tt.Type),
			"File Name": tt.FileName,
			"Published": strconv.FormatBool(tt.IsPublished),
			"Created":   tt.CreatedAt.Format("2006-01-02"),
		})
	}
	return s.render(data, "Timetables Export", "timetables", format)
}

func (s *ExportService) render(data export.Dataset, title, stem string, format ExportFormat) (*ExportFile, error) {
	stamp := s.now().UTC().Format("20060102")
	switch format {
	case FormatCSV:
		raw, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.ErrInternal.Clone(fmt.Sprintf("Failed to render export: %s", err.Error()))
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("%s-%s.csv", stem, stamp),
			ContentType: "text/csv",
			Data:        raw,
		}, nil
	case FormatPDF:
		raw, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.ErrInternal.Clone(fmt.Sprintf("Failed to render export: %s", err.Error()))
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("%s-%s.pdf", stem, stamp),
			ContentType: "application/pdf",
			Data:        raw,
		}, nil
	default:
		return nil, appErrors.ErrValidation.Clone("Format must be either csv or pdf")
	}
}
